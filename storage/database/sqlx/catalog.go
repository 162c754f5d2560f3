package sqlxrepos

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/article"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/event"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/opportunity"
)

type (
	articleRepository struct {
		*table[article.Article, *article.QueryFilter]
	}
	courseRepository struct {
		*table[course.Course, *course.QueryFilter]
	}
	eventRepository struct {
		*table[event.Event, *event.QueryFilter]
	}
	opportunityRepository struct {
		*table[opportunity.Opportunity, *opportunity.QueryFilter]
	}
	learningRepository struct {
		*table[learning.Content, *learning.QueryFilter]
	}
)

// interface compliance checks
var (
	_ article.Repository     = (*articleRepository)(nil)
	_ course.Repository      = (*courseRepository)(nil)
	_ event.Repository       = (*eventRepository)(nil)
	_ opportunity.Repository = (*opportunityRepository)(nil)
	_ learning.Repository    = (*learningRepository)(nil)
)

func NewArticleRepository(db *sqlx.DB) article.Repository {
	return &articleRepository{table: newTable[article.Article](db, "articles", article.ErrNotFound, articleWhere)}
}

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{table: newTable[course.Course](db, "courses", course.ErrNotFound, courseWhere)}
}

func NewEventRepository(db *sqlx.DB) event.Repository {
	return &eventRepository{table: newTable[event.Event](db, "events", event.ErrNotFound, eventWhere)}
}

func NewOpportunityRepository(db *sqlx.DB) opportunity.Repository {
	return &opportunityRepository{
		table: newTable[opportunity.Opportunity](db, "opportunities", opportunity.ErrNotFound, opportunityWhere),
	}
}

func NewLearningRepository(db *sqlx.DB) learning.Repository {
	return &learningRepository{
		table: newTable[learning.Content](db, "learning_content", learning.ErrNotFound, learningWhere),
	}
}

func articleWhere(filter *article.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(
		search(filter.Search, "title", "excerpt", "body"),
		hasTag("tags", filter.Tag),
		eq("slug", filter.Slug),
		eqID("author_id", filter.AuthorID),
		isTrue("is_published", filter.IsPublished),
		isTrue("is_featured", filter.IsFeatured),
	)
}

func courseWhere(filter *course.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(
		search(filter.Search, "title", "description", "instructor"),
		eq("category", filter.Category),
		eq("level", filter.Level),
		hasTag("tags", filter.Tag),
		isTrue("is_featured", filter.IsFeatured),
		isTrue("is_published", filter.IsPublished),
	)
}

func eventWhere(filter *event.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	var upcoming sq.Sqlizer
	if filter.Upcoming != nil {
		expr := "COALESCE(ends_at, starts_at) >= ?"
		if !*filter.Upcoming {
			expr = "COALESCE(ends_at, starts_at) < ?"
		}
		upcoming = sq.Expr(expr, core.NowFunc().UTC())
	}
	return and(
		search(filter.Search, "title", "description", "location"),
		hasTag("tags", filter.Tag),
		isTrue("is_online", filter.IsOnline),
		isTrue("is_featured", filter.IsFeatured),
		isTrue("is_published", filter.IsPublished),
		upcoming,
	)
}

func opportunityWhere(filter *opportunity.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	var open sq.Sqlizer
	if filter.Open != nil {
		now := core.NowFunc().UTC()
		if *filter.Open {
			open = sq.Or{sq.Eq{"deadline": nil}, sq.GtOrEq{"deadline": now}}
		} else {
			open = sq.Lt{"deadline": now}
		}
	}
	return and(
		search(filter.Search, "title", "organization", "description"),
		eq("kind", filter.Kind),
		hasTag("tags", filter.Tag),
		isTrue("is_remote", filter.IsRemote),
		isTrue("is_featured", filter.IsFeatured),
		isTrue("is_published", filter.IsPublished),
		open,
	)
}

func learningWhere(filter *learning.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(
		search(filter.Search, "title", "description"),
		eq("kind", filter.Kind),
		hasTag("tags", filter.Tag),
		hasTag("personality_types", filter.PersonalityType),
		eq("difficulty", filter.Difficulty),
		isTrue("is_featured", filter.IsFeatured),
		isTrue("is_published", filter.IsPublished),
	)
}
