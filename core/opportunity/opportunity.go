package opportunity

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

// Kinds
const (
	KindJob         = "job"
	KindInternship  = "internship"
	KindScholarship = "scholarship"
	KindFellowship  = "fellowship"
	KindVolunteer   = "volunteer"
)

var (
	Kinds       = []string{KindJob, KindInternship, KindScholarship, KindFellowship, KindVolunteer}
	ErrNotFound = core.NewNotFoundError("opportunity")
)

type Opportunity struct {
	core.Model
	Title        string           `db:"title" json:"title"`
	Organization string           `db:"organization" json:"organization"`
	Kind         string           `db:"kind" json:"kind"`
	Location     string           `db:"location" json:"location"`
	IsRemote     bool             `db:"is_remote" json:"is_remote"`
	Deadline     null.Time        `db:"deadline" json:"deadline"`
	URL          string           `db:"url" json:"url"`
	Description  string           `db:"description" json:"description"`
	Tags         core.StringArray `db:"tags" json:"tags"`
	IsFeatured   bool             `db:"is_featured" json:"is_featured"`
	IsPublished  bool             `db:"is_published" json:"is_published"`
}

// IsOpen reports whether applications are still accepted at t.
func (o Opportunity) IsOpen(t time.Time) bool {
	return !o.Deadline.Valid || !o.Deadline.Time.Before(t)
}

type Form struct {
	core.FormID
	Title        string    `json:"title" validate:"required,max=200"`
	Organization string    `json:"organization" validate:"max=200"`
	Kind         string    `json:"kind" validate:"required,oneof=job internship scholarship fellowship volunteer"`
	Location     string    `json:"location" validate:"max=200"`
	IsRemote     bool      `json:"is_remote"`
	Deadline     null.Time `json:"deadline"`
	URL          string    `json:"url" validate:"omitempty,url"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags" validate:"max=20,tags"`
	IsFeatured   bool      `json:"is_featured"`
	IsPublished  bool      `json:"is_published"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.Title = core.CleanString(f.Title)
	f.Organization = core.CleanString(f.Organization)
	f.Kind = core.CleanString(f.Kind, true /* lower */)
	f.Location = core.CleanString(f.Location)
	f.URL = core.CleanString(f.URL)
	f.Description = core.CleanString(f.Description)
	f.Tags = core.CleanTags(f.Tags)
	return validate.Struct(f)
}

type QueryFilter struct {
	Search      string `query:"search"` // title, organization & description
	Kind        string `query:"kind"`
	Tag         string `query:"tag"`
	IsRemote    *bool  `query:"is_remote"`
	IsFeatured  *bool  `query:"is_featured"`
	IsPublished *bool  `query:"is_published"`
	Open        *bool  `query:"open"` // deadline not passed
	Limit       int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
}

// Public only lists published opportunities still open for applications.
func (qf *QueryFilter) Public() {
	yes := true
	qf.IsPublished = &yes
	qf.Open = &yes
}

func (qf *QueryFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}

type (
	Repository interface {
		core.Repository[Opportunity, *QueryFilter]
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Opportunity, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Opportunity, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetPublic(ctx context.Context, id string) (Opportunity, error) {
	opp, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Opportunity{}, err
	}
	if !opp.IsPublished {
		return Opportunity{}, ErrNotFound
	}
	return opp, nil
}

func (svc *Service) Save(ctx context.Context, f Form) (Opportunity, bool, error) {
	return core.Save[Opportunity, *Opportunity, *QueryFilter](ctx, svc.repo, f.ID, func(opp *Opportunity) error {
		opp.Title = f.Title
		opp.Organization = f.Organization
		opp.Kind = f.Kind
		opp.Location = f.Location
		opp.IsRemote = f.IsRemote
		opp.Deadline = f.Deadline
		if opp.Deadline.Valid {
			opp.Deadline.Time = opp.Deadline.Time.UTC()
		}
		opp.URL = f.URL
		opp.Description = f.Description
		opp.Tags = f.Tags
		opp.IsFeatured = f.IsFeatured
		opp.IsPublished = f.IsPublished
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}
