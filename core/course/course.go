package course

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

var ErrNotFound = core.NewNotFoundError("course")

type Course struct {
	core.Model
	Title         string           `db:"title" json:"title"`
	Description   string           `db:"description" json:"description"`
	Category      string           `db:"category" json:"category"`
	Level         string           `db:"level" json:"level"`
	DurationHours int              `db:"duration_hours" json:"duration_hours"`
	Price         int64            `db:"price" json:"price"` // cents
	ImageURL      string           `db:"image_url" json:"image_url"`
	Tags          core.StringArray `db:"tags" json:"tags"`
	Instructor    string           `db:"instructor" json:"instructor"`
	Rating        float64          `db:"rating" json:"rating"`
	IsFeatured    bool             `db:"is_featured" json:"is_featured"`
	IsPublished   bool             `db:"is_published" json:"is_published"`
}

type Form struct {
	core.FormID
	Title         string   `json:"title" validate:"required,max=200"`
	Description   string   `json:"description"`
	Category      string   `json:"category" validate:"max=64"`
	Level         string   `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationHours int      `json:"duration_hours" validate:"gte=0"`
	Price         int64    `json:"price" validate:"gte=0"`
	ImageURL      string   `json:"image_url" validate:"omitempty,url"`
	Tags          []string `json:"tags" validate:"max=20,tags"`
	Instructor    string   `json:"instructor" validate:"max=100"`
	Rating        float64  `json:"rating" validate:"gte=0,lte=5"`
	IsFeatured    bool     `json:"is_featured"`
	IsPublished   bool     `json:"is_published"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.Title = core.CleanString(f.Title)
	f.Description = core.CleanString(f.Description)
	f.Category = core.CleanString(f.Category, true /* lower */)
	f.Level = core.CleanString(f.Level, true /* lower */)
	f.ImageURL = core.CleanString(f.ImageURL)
	f.Tags = core.CleanTags(f.Tags)
	f.Instructor = core.CleanString(f.Instructor)
	return validate.Struct(f)
}

type QueryFilter struct {
	Search      string `query:"search"` // title, description & instructor
	Category    string `query:"category"`
	Level       string `query:"level"`
	Tag         string `query:"tag"`
	IsFeatured  *bool  `query:"is_featured"`
	IsPublished *bool  `query:"is_published"`
	Limit       int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
}

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

type (
	Repository interface {
		core.Repository[Course, *QueryFilter]
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetPublic(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !crs.IsPublished {
		return Course{}, ErrNotFound
	}
	return crs, nil
}

func (svc *Service) Save(ctx context.Context, f Form) (Course, bool, error) {
	return core.Save[Course, *Course, *QueryFilter](ctx, svc.repo, f.ID, func(crs *Course) error {
		crs.Title = f.Title
		crs.Description = f.Description
		crs.Category = f.Category
		crs.Level = f.Level
		crs.DurationHours = f.DurationHours
		crs.Price = f.Price
		crs.ImageURL = f.ImageURL
		crs.Tags = f.Tags
		crs.Instructor = f.Instructor
		crs.Rating = f.Rating
		crs.IsFeatured = f.IsFeatured
		crs.IsPublished = f.IsPublished
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}
