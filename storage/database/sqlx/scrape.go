package sqlxrepos

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/elimu/core/scrape"
)

type scrapedContentRepository struct {
	*table[scrape.Content, *scrape.QueryFilter]
}

var _ scrape.Repository = (*scrapedContentRepository)(nil) // interface compliance check

func NewScrapedContentRepository(db *sqlx.DB) scrape.Repository {
	return &scrapedContentRepository{
		table: newTable[scrape.Content](db, "scraped_content", scrape.ErrNotFound, scrapedContentWhere),
	}
}

func scrapedContentWhere(filter *scrape.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	var url sq.Sqlizer
	if filter.URL != "" {
		url = sq.Eq{"url": filter.URL}
	}
	return and(
		search(filter.Search, "title", "summary"),
		eq("source", filter.Source),
		url,
		eq("kind", filter.Kind),
		eq("status", filter.Status),
		hasTag("tags", filter.Tag),
	)
}
