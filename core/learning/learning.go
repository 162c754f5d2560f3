package learning

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

// Kinds
const (
	KindVideo   = "video"
	KindArticle = "article"
	KindCourse  = "course"
	KindPodcast = "podcast"
	KindBook    = "book"
)

var ErrNotFound = core.NewNotFoundError("learning content")

// Content is a curated learning resource.
type Content struct {
	core.Model
	Title            string           `db:"title" json:"title"`
	Description      string           `db:"description" json:"description"`
	Kind             string           `db:"kind" json:"kind"`
	URL              string           `db:"url" json:"url"`
	ThumbnailURL     string           `db:"thumbnail_url" json:"thumbnail_url"`
	Tags             core.StringArray `db:"tags" json:"tags"`
	PersonalityTypes core.StringArray `db:"personality_types" json:"personality_types"`
	Difficulty       string           `db:"difficulty" json:"difficulty"`
	Rating           float64          `db:"rating" json:"rating"`
	IsFeatured       bool             `db:"is_featured" json:"is_featured"`
	IsPublished      bool             `db:"is_published" json:"is_published"`
}

type Form struct {
	core.FormID
	Title            string   `json:"title" validate:"required,max=200"`
	Description      string   `json:"description"`
	Kind             string   `json:"kind" validate:"required,oneof=video article course podcast book"`
	URL              string   `json:"url" validate:"omitempty,url"`
	ThumbnailURL     string   `json:"thumbnail_url" validate:"omitempty,url"`
	Tags             []string `json:"tags" validate:"max=20,tags"`
	PersonalityTypes []string `json:"personality_types" validate:"max=16,tags"`
	Difficulty       string   `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Rating           float64  `json:"rating" validate:"gte=0,lte=5"`
	IsFeatured       bool     `json:"is_featured"`
	IsPublished      bool     `json:"is_published"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.Title = core.CleanString(f.Title)
	f.Description = core.CleanString(f.Description)
	f.Kind = core.CleanString(f.Kind, true /* lower */)
	f.URL = core.CleanString(f.URL)
	f.ThumbnailURL = core.CleanString(f.ThumbnailURL)
	f.Tags = core.CleanTags(f.Tags)
	f.PersonalityTypes = core.CleanTags(f.PersonalityTypes)
	f.Difficulty = core.CleanString(f.Difficulty, true /* lower */)
	return validate.Struct(f)
}

type QueryFilter struct {
	Search          string `query:"search"` // title & description
	Kind            string `query:"kind"`
	Tag             string `query:"tag"`
	PersonalityType string `query:"personality_type"`
	Difficulty      string `query:"difficulty"`
	IsFeatured      *bool  `query:"is_featured"`
	IsPublished     *bool  `query:"is_published"`
	Limit           int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
	qf.PersonalityType = core.CleanString(qf.PersonalityType, true /* lower */)
	qf.Difficulty = core.CleanString(qf.Difficulty, true /* lower */)
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
		core.Repository[Content, *QueryFilter]
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Content, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Content, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetPublic(ctx context.Context, id string) (Content, error) {
	lc, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Content{}, err
	}
	if !lc.IsPublished {
		return Content{}, ErrNotFound
	}
	return lc, nil
}

func (svc *Service) Save(ctx context.Context, f Form) (Content, bool, error) {
	return core.Save[Content, *Content, *QueryFilter](ctx, svc.repo, f.ID, func(lc *Content) error {
		lc.Title = f.Title
		lc.Description = f.Description
		lc.Kind = f.Kind
		lc.URL = f.URL
		lc.ThumbnailURL = f.ThumbnailURL
		lc.Tags = f.Tags
		lc.PersonalityTypes = f.PersonalityTypes
		lc.Difficulty = f.Difficulty
		lc.Rating = f.Rating
		lc.IsFeatured = f.IsFeatured
		lc.IsPublished = f.IsPublished
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}
