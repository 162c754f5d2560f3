package article

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/yuin/goldmark"

	"github.com/trezcool/elimu/core"
)

var (
	ErrNotFound   = core.NewNotFoundError("article")
	errSlugExists = errors.New("an article with this slug already exists")
)

type (
	Repository interface {
		core.Repository[Article, *QueryFilter]
	}

	Service struct {
		repo Repository
		md   goldmark.Markdown
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, md: newMarkdown()}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Article, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Article, error) {
	return svc.repo.Get(ctx, id)
}

// GetPublic finds a published article by ID or slug.
func (svc *Service) GetPublic(ctx context.Context, idOrSlug string) (Article, error) {
	var art Article
	var err error
	if core.IsValidID(idOrSlug) {
		art, err = svc.repo.Get(ctx, idOrSlug)
	} else {
		art, err = svc.getBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return Article{}, err
	}
	if !art.IsPublished {
		return Article{}, ErrNotFound
	}
	return art, nil
}

func (svc *Service) getBySlug(ctx context.Context, slug string) (Article, error) {
	arts, err := svc.repo.Query(ctx, &QueryFilter{Slug: core.CleanString(slug, true /* lower */), Limit: 1}, nil)
	if err != nil {
		return Article{}, errors.Wrap(err, "querying articles by slug")
	}
	if len(arts) == 0 {
		return Article{}, ErrNotFound
	}
	return arts[0], nil
}

// slugTaken reports whether another article than excludedID uses slug.
func (svc *Service) slugTaken(ctx context.Context, slug, excludedID string) (bool, error) {
	art, err := svc.getBySlug(ctx, slug)
	if err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return art.ID != excludedID, nil
}

// uniqueSlug resolves the slug of a saved article. Explicit slugs must be free,
// slugs derived from the title get a numeric suffix until they are.
func (svc *Service) uniqueSlug(ctx context.Context, f Form) (string, error) {
	if f.Slug != "" {
		taken, err := svc.slugTaken(ctx, f.Slug, f.ID)
		if err != nil {
			return "", err
		}
		if taken {
			return "", core.NewValidationError(errSlugExists, core.FieldError{Field: "slug", Error: errSlugExists.Error()})
		}
		return f.Slug, nil
	}

	base := Slugify(f.Title)
	if base == "" {
		base = "article"
	}
	slug := base
	for i := 2; ; i++ {
		taken, err := svc.slugTaken(ctx, slug, f.ID)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}

// Save inserts the article when the form has no ID, else updates it. The body is rendered to HTML.
func (svc *Service) Save(ctx context.Context, f Form) (Article, bool, error) {
	return core.Save[Article, *Article, *QueryFilter](ctx, svc.repo, f.ID, func(art *Article) error {
		slug, err := svc.uniqueSlug(ctx, f)
		if err != nil {
			return err
		}
		html, err := renderMarkdown(svc.md, f.Body)
		if err != nil {
			return err
		}

		art.Title = f.Title
		art.Slug = slug
		art.Excerpt = f.Excerpt
		art.Body = f.Body
		art.BodyHTML = html
		art.CoverImageURL = f.CoverImageURL
		art.Tags = f.Tags
		art.AuthorID = null.NewString(f.AuthorID, f.AuthorID != "")
		art.IsFeatured = f.IsFeatured
		switch {
		case f.IsPublished && !art.PublishedAt.Valid:
			art.PublishedAt = null.TimeFrom(core.NowFunc().UTC())
		case !f.IsPublished:
			art.PublishedAt = null.Time{}
		}
		art.IsPublished = f.IsPublished
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}
