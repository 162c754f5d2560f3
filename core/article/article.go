package article

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

type Article struct {
	core.Model
	Title         string           `db:"title" json:"title"`
	Slug          string           `db:"slug" json:"slug"`
	Excerpt       string           `db:"excerpt" json:"excerpt"`
	Body          string           `db:"body" json:"body"`           // markdown
	BodyHTML      string           `db:"body_html" json:"body_html"` // rendered from Body
	CoverImageURL string           `db:"cover_image_url" json:"cover_image_url"`
	Tags          core.StringArray `db:"tags" json:"tags"`
	AuthorID      null.String      `db:"author_id" json:"author_id"`
	IsPublished   bool             `db:"is_published" json:"is_published"`
	IsFeatured    bool             `db:"is_featured" json:"is_featured"`
	PublishedAt   null.Time        `db:"published_at" json:"published_at"`
}

type Form struct {
	core.FormID
	Title         string   `json:"title" validate:"required,max=200"`
	Slug          string   `json:"slug" validate:"omitempty,max=200,slug"`
	Excerpt       string   `json:"excerpt" validate:"max=500"`
	Body          string   `json:"body"`
	CoverImageURL string   `json:"cover_image_url" validate:"omitempty,url"`
	Tags          []string `json:"tags" validate:"max=20,tags"`
	AuthorID      string   `json:"author_id" validate:"omitempty,uuid"`
	IsPublished   bool     `json:"is_published"`
	IsFeatured    bool     `json:"is_featured"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.Title = core.CleanString(f.Title)
	f.Slug = core.CleanString(f.Slug, true /* lower */)
	f.Excerpt = core.CleanString(f.Excerpt)
	f.Body = core.CleanString(f.Body)
	f.CoverImageURL = core.CleanString(f.CoverImageURL)
	f.Tags = core.CleanTags(f.Tags)
	f.AuthorID = core.CleanString(f.AuthorID, true /* lower */)
	return validate.Struct(f)
}

type QueryFilter struct {
	Search      string `query:"search"` // title, excerpt & body
	Tag         string `query:"tag"`
	Slug        string `query:"slug"`
	AuthorID    string `query:"author_id"`
	IsPublished *bool  `query:"is_published"`
	IsFeatured  *bool  `query:"is_featured"`
	Limit       int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
	qf.Slug = core.CleanString(qf.Slug, true /* lower */)
}

// Public restricts the filter to what anonymous visitors may see.
func (qf *QueryFilter) Public() {
	published := true
	qf.IsPublished = &published
}

func (qf *QueryFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}
