package event

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

var (
	ErrNotFound = core.NewNotFoundError("event")

	errEndsBeforeStart = errors.New("the event cannot end before it starts")
)

type Event struct {
	core.Model
	Title           string           `db:"title" json:"title"`
	Description     string           `db:"description" json:"description"`
	Location        string           `db:"location" json:"location"`
	IsOnline        bool             `db:"is_online" json:"is_online"`
	StartsAt        time.Time        `db:"starts_at" json:"starts_at"`
	EndsAt          null.Time        `db:"ends_at" json:"ends_at"`
	RegistrationURL string           `db:"registration_url" json:"registration_url"`
	ImageURL        string           `db:"image_url" json:"image_url"`
	Tags            core.StringArray `db:"tags" json:"tags"`
	IsFeatured      bool             `db:"is_featured" json:"is_featured"`
	IsPublished     bool             `db:"is_published" json:"is_published"`
}

// IsUpcoming reports whether the event has not ended at t.
func (e Event) IsUpcoming(t time.Time) bool {
	if e.EndsAt.Valid {
		return !e.EndsAt.Time.Before(t)
	}
	return !e.StartsAt.Before(t)
}

type Form struct {
	core.FormID
	Title           string    `json:"title" validate:"required,max=200"`
	Description     string    `json:"description"`
	Location        string    `json:"location" validate:"max=200"`
	IsOnline        bool      `json:"is_online"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	EndsAt          null.Time `json:"ends_at"`
	RegistrationURL string    `json:"registration_url" validate:"omitempty,url"`
	ImageURL        string    `json:"image_url" validate:"omitempty,url"`
	Tags            []string  `json:"tags" validate:"max=20,tags"`
	IsFeatured      bool      `json:"is_featured"`
	IsPublished     bool      `json:"is_published"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.Title = core.CleanString(f.Title)
	f.Description = core.CleanString(f.Description)
	f.Location = core.CleanString(f.Location)
	f.RegistrationURL = core.CleanString(f.RegistrationURL)
	f.ImageURL = core.CleanString(f.ImageURL)
	f.Tags = core.CleanTags(f.Tags)
	if err := validate.Struct(f); err != nil {
		return err
	}
	if f.EndsAt.Valid && f.EndsAt.Time.Before(f.StartsAt) {
		return core.NewValidationError(errEndsBeforeStart, core.FieldError{Field: "ends_at", Error: errEndsBeforeStart.Error()})
	}
	return nil
}

type QueryFilter struct {
	Search      string `query:"search"` // title, description & location
	Tag         string `query:"tag"`
	IsOnline    *bool  `query:"is_online"`
	IsFeatured  *bool  `query:"is_featured"`
	IsPublished *bool  `query:"is_published"`
	Upcoming    *bool  `query:"upcoming"` // not ended yet
	Limit       int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
}

// Public only lists published events that have not ended yet.
func (qf *QueryFilter) Public() {
	yes := true
	qf.IsPublished = &yes
	qf.Upcoming = &yes
}

func (qf *QueryFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}

type (
	Repository interface {
		core.Repository[Event, *QueryFilter]
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Event, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Event, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetPublic(ctx context.Context, id string) (Event, error) {
	evt, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if !evt.IsPublished {
		return Event{}, ErrNotFound
	}
	return evt, nil
}

func (svc *Service) Save(ctx context.Context, f Form) (Event, bool, error) {
	return core.Save[Event, *Event, *QueryFilter](ctx, svc.repo, f.ID, func(evt *Event) error {
		evt.Title = f.Title
		evt.Description = f.Description
		evt.Location = f.Location
		evt.IsOnline = f.IsOnline
		evt.StartsAt = f.StartsAt.UTC()
		evt.EndsAt = f.EndsAt
		if evt.EndsAt.Valid {
			evt.EndsAt.Time = evt.EndsAt.Time.UTC()
		}
		evt.RegistrationURL = f.RegistrationURL
		evt.ImageURL = f.ImageURL
		evt.Tags = f.Tags
		evt.IsFeatured = f.IsFeatured
		evt.IsPublished = f.IsPublished
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}
