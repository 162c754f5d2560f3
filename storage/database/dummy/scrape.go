package dummydb

import "github.com/trezcool/elimu/core/scrape"

type scrapedContentRepository struct {
	*table[scrape.Content, *scrape.QueryFilter]
}

var _ scrape.Repository = (*scrapedContentRepository)(nil) // interface compliance check

func NewScrapedContentRepository(db *DB) scrape.Repository {
	return &scrapedContentRepository{table: db.scrapeContent}
}

func matchScrapedContent(sc scrape.Content, filter *scrape.QueryFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, sc.Title, sc.Summary) &&
		eqMatch(filter.Source, sc.Source) &&
		(filter.URL == "" || sc.URL == filter.URL) &&
		eqMatch(filter.Kind, sc.Kind) &&
		eqMatch(filter.Status, sc.Status) &&
		tagMatch(filter.Tag, sc.Tags)
}
