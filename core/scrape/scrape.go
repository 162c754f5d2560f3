package scrape

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

// Kinds
const (
	KindLearning    = "learning"
	KindOpportunity = "opportunity"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// FunctionName is the remote function that scrapes the sources.
const FunctionName = "scrape-content"

// Content is a row found by the scraping function, waiting to be curated.
type Content struct {
	core.Model
	Source    string           `db:"source" json:"source"`
	URL       string           `db:"url" json:"url"`
	Title     string           `db:"title" json:"title"`
	Summary   string           `db:"summary" json:"summary"`
	Kind      string           `db:"kind" json:"kind"`
	Tags      core.StringArray `db:"tags" json:"tags"`
	Status    string           `db:"status" json:"status"`
	ScrapedAt null.Time        `db:"scraped_at" json:"scraped_at"`
}

type Form struct {
	core.FormID
	Source    string    `json:"source" validate:"required,max=100"`
	URL       string    `json:"url" validate:"required,url"`
	Title     string    `json:"title" validate:"max=300"`
	Summary   string    `json:"summary"`
	Kind      string    `json:"kind" validate:"required,oneof=learning opportunity"`
	Tags      []string  `json:"tags" validate:"max=20,tags"`
	Status    string    `json:"status" validate:"required,oneof=pending approved rejected"`
	ScrapedAt null.Time `json:"scraped_at"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.Source = core.CleanString(f.Source, true /* lower */)
	f.URL = core.CleanString(f.URL)
	f.Title = core.CleanString(f.Title)
	f.Summary = core.CleanString(f.Summary)
	f.Kind = core.CleanString(f.Kind, true /* lower */)
	f.Tags = core.CleanTags(f.Tags)
	f.Status = core.CleanString(f.Status, true /* lower */)
	return validate.Struct(f)
}

type QueryFilter struct {
	Search string `query:"search"` // title & summary
	Source string `query:"source"`
	URL    string `query:"url"`
	Kind   string `query:"kind"`
	Status string `query:"status"`
	Tag    string `query:"tag"`
	Limit  int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Source = core.CleanString(qf.Source, true /* lower */)
	qf.URL = core.CleanString(qf.URL)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
}

func (qf *QueryFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}

// TriggerForm lists the sources to scrape; an empty list lets the function use its defaults.
type TriggerForm struct {
	Sources []string `json:"sources" validate:"max=20,dive,required,max=100"`
}

func (f *TriggerForm) Validate(validate *validator.Validate) error {
	for i, src := range f.Sources {
		f.Sources[i] = core.CleanString(src, true /* lower */)
	}
	return validate.Struct(f)
}

// ApproveForm sets the kind of the row created from approved content.
type ApproveForm struct {
	LearningKind    string `json:"learning_kind" validate:"omitempty,oneof=video article course podcast book"`
	OpportunityKind string `json:"opportunity_kind" validate:"omitempty,oneof=job internship scholarship fellowship volunteer"`
	Publish         bool   `json:"publish"`
}

func (f *ApproveForm) Validate(validate *validator.Validate) error {
	f.LearningKind = core.CleanString(f.LearningKind, true /* lower */)
	f.OpportunityKind = core.CleanString(f.OpportunityKind, true /* lower */)
	return validate.Struct(f)
}
