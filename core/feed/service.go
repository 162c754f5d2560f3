package feed

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/opportunity"
	"github.com/trezcool/elimu/core/user"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// candidate pools are capped to keep the ranking cheap
	poolSize = 500

	learningPoolKey    = "feed:pool:learning"
	opportunityPoolKey = "feed:pool:opportunities"
)

type (
	LearningQuerier interface {
		Query(ctx context.Context, filter *learning.QueryFilter, ordering []core.DBOrdering) ([]learning.Content, error)
	}

	OpportunityQuerier interface {
		Query(ctx context.Context, filter *opportunity.QueryFilter, ordering []core.DBOrdering) ([]opportunity.Opportunity, error)
	}

	Service struct {
		learning      LearningQuerier
		opportunities OpportunityQuerier
		cache         core.Cache
		ttl           time.Duration
		logger        core.Logger
	}
)

func NewService(lq LearningQuerier, oq OpportunityQuerier, cache core.Cache, conf *core.Config, logger core.Logger) *Service {
	return &Service{learning: lq, opportunities: oq, cache: cache, ttl: conf.Redis.FeedTTL, logger: logger}
}

func ProfileOf(usr user.User) Profile {
	return Profile{Interests: usr.Interests, PersonalityType: usr.PersonalityType}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func learningCandidate(lc learning.Content) Candidate {
	return Candidate{
		Tags:             lc.Tags,
		Text:             lc.Title + " " + lc.Description,
		PersonalityTypes: lc.PersonalityTypes,
		Featured:         lc.IsFeatured,
		Rating:           lc.Rating,
		CreatedAt:        lc.CreatedAt,
	}
}

func opportunityCandidate(opp opportunity.Opportunity) Candidate {
	return Candidate{
		Tags:      opp.Tags,
		Text:      opp.Title + " " + opp.Organization + " " + opp.Description,
		Featured:  opp.IsFeatured,
		CreatedAt: opp.CreatedAt,
	}
}

// cachedPool returns the pool cached under key, loading (and caching) it on a miss.
// Cache failures are logged and the pool is loaded from the database.
func cachedPool[T any](ctx context.Context, svc *Service, key string, load func() ([]T, error)) ([]T, error) {
	var pool []T
	ok, err := svc.cache.Get(ctx, key, &pool)
	if err != nil {
		svc.logger.Warn("reading feed pool from cache", err, map[string]interface{}{"key": key})
	}
	if ok {
		return pool, nil
	}

	if pool, err = load(); err != nil {
		return nil, err
	}
	if err = svc.cache.Set(ctx, key, pool, svc.ttl); err != nil {
		svc.logger.Warn("caching feed pool", err, map[string]interface{}{"key": key})
	}
	return pool, nil
}

// Learning returns the published learning content ranked for usr.
func (svc *Service) Learning(ctx context.Context, usr user.User, limit int) ([]Scored[learning.Content], error) {
	pool, err := cachedPool(ctx, svc, learningPoolKey, func() ([]learning.Content, error) {
		filter := &learning.QueryFilter{Limit: poolSize}
		filter.Public()
		lcs, err := svc.learning.Query(ctx, filter, []core.DBOrdering{{Field: "created_at"}})
		return lcs, errors.Wrap(err, "querying learning content")
	})
	if err != nil {
		return nil, err
	}
	ranked := Rank(ProfileOf(usr), pool, learningCandidate, core.NowFunc())
	if limit = clampLimit(limit); len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Opportunities returns the open opportunities ranked for usr.
func (svc *Service) Opportunities(ctx context.Context, usr user.User, limit int) ([]Scored[opportunity.Opportunity], error) {
	now := core.NowFunc()
	pool, err := cachedPool(ctx, svc, opportunityPoolKey, func() ([]opportunity.Opportunity, error) {
		filter := &opportunity.QueryFilter{Limit: poolSize}
		filter.Public()
		opps, err := svc.opportunities.Query(ctx, filter, []core.DBOrdering{{Field: "created_at"}})
		return opps, errors.Wrap(err, "querying opportunities")
	})
	if err != nil {
		return nil, err
	}

	// the pool may be a bit stale: drop what closed since it was cached
	open := pool[:0:0]
	for _, opp := range pool {
		if opp.IsOpen(now) {
			open = append(open, opp)
		}
	}
	ranked := Rank(ProfileOf(usr), open, opportunityCandidate, now)
	if limit = clampLimit(limit); len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Invalidate drops the cached pools, e.g. after the catalog changed.
func (svc *Service) Invalidate(ctx context.Context) error {
	return errors.Wrap(svc.cache.Delete(ctx, learningPoolKey, opportunityPoolKey), "deleting feed pools")
}
