package dummydb

import (
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

func NewArticleRepository(db *DB) article.Repository {
	return &articleRepository{table: db.article}
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{table: db.course}
}

func NewEventRepository(db *DB) event.Repository {
	return &eventRepository{table: db.event}
}

func NewOpportunityRepository(db *DB) opportunity.Repository {
	return &opportunityRepository{table: db.opportunity}
}

func NewLearningRepository(db *DB) learning.Repository {
	return &learningRepository{table: db.learning}
}

func matchArticle(art article.Article, filter *article.QueryFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, art.Title, art.Excerpt, art.Body) &&
		tagMatch(filter.Tag, art.Tags) &&
		eqMatch(filter.Slug, art.Slug) &&
		(filter.AuthorID == "" || (art.AuthorID.Valid && art.AuthorID.String == filter.AuthorID)) &&
		boolMatch(filter.IsPublished, art.IsPublished) &&
		boolMatch(filter.IsFeatured, art.IsFeatured)
}

func matchCourse(crs course.Course, filter *course.QueryFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, crs.Title, crs.Description, crs.Instructor) &&
		eqMatch(filter.Category, crs.Category) &&
		eqMatch(filter.Level, crs.Level) &&
		tagMatch(filter.Tag, crs.Tags) &&
		boolMatch(filter.IsFeatured, crs.IsFeatured) &&
		boolMatch(filter.IsPublished, crs.IsPublished)
}

func matchEvent(evt event.Event, filter *event.QueryFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, evt.Title, evt.Description, evt.Location) &&
		tagMatch(filter.Tag, evt.Tags) &&
		boolMatch(filter.IsOnline, evt.IsOnline) &&
		boolMatch(filter.IsFeatured, evt.IsFeatured) &&
		boolMatch(filter.IsPublished, evt.IsPublished) &&
		boolMatch(filter.Upcoming, evt.IsUpcoming(core.NowFunc()))
}

func matchOpportunity(opp opportunity.Opportunity, filter *opportunity.QueryFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, opp.Title, opp.Organization, opp.Description) &&
		eqMatch(filter.Kind, opp.Kind) &&
		tagMatch(filter.Tag, opp.Tags) &&
		boolMatch(filter.IsRemote, opp.IsRemote) &&
		boolMatch(filter.IsFeatured, opp.IsFeatured) &&
		boolMatch(filter.IsPublished, opp.IsPublished) &&
		boolMatch(filter.Open, opp.IsOpen(core.NowFunc()))
}

func matchLearning(lc learning.Content, filter *learning.QueryFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, lc.Title, lc.Description) &&
		eqMatch(filter.Kind, lc.Kind) &&
		tagMatch(filter.Tag, lc.Tags) &&
		tagMatch(filter.PersonalityType, lc.PersonalityTypes) &&
		eqMatch(filter.Difficulty, lc.Difficulty) &&
		boolMatch(filter.IsFeatured, lc.IsFeatured) &&
		boolMatch(filter.IsPublished, lc.IsPublished)
}
