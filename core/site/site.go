// Package site serves the content of the marketing pages.
package site

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/article"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/event"
	"github.com/trezcool/elimu/core/opportunity"
)

const HighlightsLimit = 3

type (
	CourseQuerier interface {
		Query(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error)
	}

	ArticleQuerier interface {
		Query(ctx context.Context, filter *article.QueryFilter, ordering []core.DBOrdering) ([]article.Article, error)
	}

	EventQuerier interface {
		Query(ctx context.Context, filter *event.QueryFilter, ordering []core.DBOrdering) ([]event.Event, error)
	}

	OpportunityQuerier interface {
		Query(ctx context.Context, filter *opportunity.QueryFilter, ordering []core.DBOrdering) ([]opportunity.Opportunity, error)
	}

	Highlights struct {
		Courses       []course.Course           `json:"courses"`
		Articles      []article.Article         `json:"articles"`
		Events        []event.Event             `json:"events"`
		Opportunities []opportunity.Opportunity `json:"opportunities"`
	}

	Service struct {
		courses       CourseQuerier
		articles      ArticleQuerier
		events        EventQuerier
		opportunities OpportunityQuerier
	}
)

func NewService(cq CourseQuerier, aq ArticleQuerier, eq EventQuerier, oq OpportunityQuerier) *Service {
	return &Service{courses: cq, articles: aq, events: eq, opportunities: oq}
}

// Highlights returns featured courses, articles & opportunities and the next upcoming events.
func (svc *Service) Highlights(ctx context.Context) (Highlights, error) {
	var (
		hl    Highlights
		err   error
		yes   = true
		newer = []core.DBOrdering{{Field: "created_at"}}
	)

	cf := &course.QueryFilter{IsFeatured: &yes, Limit: HighlightsLimit}
	cf.Public()
	if hl.Courses, err = svc.courses.Query(ctx, cf, newer); err != nil {
		return hl, errors.Wrap(err, "querying courses")
	}

	af := &article.QueryFilter{IsFeatured: &yes, Limit: HighlightsLimit}
	af.Public()
	if hl.Articles, err = svc.articles.Query(ctx, af, []core.DBOrdering{{Field: "published_at"}}); err != nil {
		return hl, errors.Wrap(err, "querying articles")
	}

	ef := &event.QueryFilter{Limit: HighlightsLimit}
	ef.Public()
	if hl.Events, err = svc.events.Query(ctx, ef, []core.DBOrdering{{Field: "starts_at", Ascending: true}}); err != nil {
		return hl, errors.Wrap(err, "querying events")
	}

	of := &opportunity.QueryFilter{IsFeatured: &yes, Limit: HighlightsLimit}
	of.Public()
	if hl.Opportunities, err = svc.opportunities.Query(ctx, of, newer); err != nil {
		return hl, errors.Wrap(err, "querying opportunities")
	}
	return hl, nil
}
