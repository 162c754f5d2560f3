package scrape

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/opportunity"
)

var (
	ErrNotFound = core.NewNotFoundError("scraped content")

	errAlreadyApproved = errors.New("this content was already approved")
)

const maxTitleLen = 200

type (
	Repository interface {
		core.Repository[Content, *QueryFilter]
	}

	// FeedInvalidator drops the cached feed pools once published content changed.
	FeedInvalidator interface {
		Invalidate(ctx context.Context) error
	}

	Service struct {
		repo          Repository
		invoker       core.FunctionInvoker
		learning      *learning.Service
		opportunities *opportunity.Service
		feed          FeedInvalidator
		validate      *validator.Validate
		logger        core.Logger
	}

	// Item is a piece of content returned by the scraping function.
	Item struct {
		Source    string     `json:"source"`
		URL       string     `json:"url"`
		Title     string     `json:"title"`
		Summary   string     `json:"summary"`
		Kind      string     `json:"kind"`
		Tags      []string   `json:"tags"`
		ScrapedAt *time.Time `json:"scraped_at"`
	}

	TriggerResult struct {
		Response json.RawMessage `json:"response"`
		Ingested int             `json:"ingested"`
	}

	ApproveResult struct {
		Content     Content                  `json:"content"`
		Learning    *learning.Content        `json:"learning_content,omitempty"`
		Opportunity *opportunity.Opportunity `json:"opportunity,omitempty"`
	}
)

func NewService(
	repo Repository,
	invoker core.FunctionInvoker,
	learningSvc *learning.Service,
	oppSvc *opportunity.Service,
	feed FeedInvalidator,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:          repo,
		invoker:       invoker,
		learning:      learningSvc,
		opportunities: oppSvc,
		feed:          feed,
		validate:      validate,
		logger:        logger,
	}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Content, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Content, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Save(ctx context.Context, f Form) (Content, bool, error) {
	return core.Save[Content, *Content, *QueryFilter](ctx, svc.repo, f.ID, func(sc *Content) error {
		sc.Source = f.Source
		sc.URL = f.URL
		sc.Title = f.Title
		sc.Summary = f.Summary
		sc.Kind = f.Kind
		sc.Tags = f.Tags
		sc.Status = f.Status
		sc.ScrapedAt = f.ScrapedAt
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}

// Trigger invokes the scraping function and stores the new items it returns as pending content.
// The function's response is returned as is.
func (svc *Service) Trigger(ctx context.Context, f TriggerForm) (TriggerResult, error) {
	sources := f.Sources
	if sources == nil {
		sources = []string{}
	}
	var raw json.RawMessage
	if err := svc.invoker.Invoke(ctx, FunctionName, map[string]interface{}{"sources": sources}, &raw); err != nil {
		return TriggerResult{}, errors.Wrap(err, "invoking scraping function")
	}
	res := TriggerResult{Response: raw}

	var payload struct {
		Items []Item `json:"items"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil {
		return res, nil // not an object with items: nothing to ingest
	}
	for _, item := range payload.Items {
		created, err := svc.ingest(ctx, item)
		if err != nil {
			return res, err
		}
		if created {
			res.Ingested++
		}
	}
	return res, nil
}

// ingest stores item unless its URL is already known or it is unusable.
func (svc *Service) ingest(ctx context.Context, item Item) (bool, error) {
	url := core.CleanString(item.URL)
	kind := core.CleanString(item.Kind, true /* lower */)
	if url == "" {
		return false, nil
	}
	if kind != KindOpportunity {
		kind = KindLearning
	}

	existing, err := svc.repo.Query(ctx, &QueryFilter{URL: url, Limit: 1}, nil)
	if err != nil {
		return false, errors.Wrap(err, "querying scraped content")
	}
	if len(existing) > 0 {
		return false, nil
	}

	sc := Content{
		Source:  core.CleanString(item.Source, true /* lower */),
		URL:     url,
		Title:   core.CleanString(item.Title),
		Summary: core.CleanString(item.Summary),
		Kind:    kind,
		Tags:    core.CleanTags(item.Tags),
		Status:  StatusPending,
	}
	if item.ScrapedAt != nil {
		sc.ScrapedAt = null.TimeFrom(item.ScrapedAt.UTC())
	} else {
		sc.ScrapedAt = null.TimeFrom(core.NowFunc().UTC())
	}
	sc.Touch(core.NowFunc().UTC())
	if _, err = svc.repo.Create(ctx, sc); err != nil {
		return false, errors.Wrap(err, "creating scraped content")
	}
	return true, nil
}

// Approve turns scraped content into a learning content or an opportunity, depending on its kind.
// The created entry goes through the same validation as a manual one and published entries refresh the feed.
func (svc *Service) Approve(ctx context.Context, id string, f ApproveForm) (ApproveResult, error) {
	sc, err := svc.repo.Get(ctx, id)
	if err != nil {
		return ApproveResult{}, err
	}
	if sc.Status == StatusApproved {
		return ApproveResult{}, core.NewValidationError(errAlreadyApproved, core.FieldError{Field: "status", Error: errAlreadyApproved.Error()})
	}

	var res ApproveResult
	title := sc.Title
	if title == "" {
		title = sc.URL
	}
	title = truncate(title, maxTitleLen)
	switch sc.Kind {
	case KindOpportunity:
		kind := f.OpportunityKind
		if kind == "" {
			kind = opportunity.KindJob
		}
		form := opportunity.Form{
			Title:        title,
			Organization: truncate(sc.Source, maxTitleLen),
			Kind:         kind,
			URL:          sc.URL,
			Description:  sc.Summary,
			Tags:         sc.Tags,
			IsPublished:  f.Publish,
		}
		if err = form.Validate(svc.validate); err != nil {
			return ApproveResult{}, err
		}
		opp, _, err := svc.opportunities.Save(ctx, form)
		if err != nil {
			return ApproveResult{}, errors.Wrap(err, "saving opportunity")
		}
		res.Opportunity = &opp
	default:
		kind := f.LearningKind
		if kind == "" {
			kind = learning.KindArticle
		}
		form := learning.Form{
			Title:       title,
			Description: sc.Summary,
			Kind:        kind,
			URL:         sc.URL,
			Tags:        sc.Tags,
			IsPublished: f.Publish,
		}
		if err = form.Validate(svc.validate); err != nil {
			return ApproveResult{}, err
		}
		lc, _, err := svc.learning.Save(ctx, form)
		if err != nil {
			return ApproveResult{}, errors.Wrap(err, "saving learning content")
		}
		res.Learning = &lc
	}

	if res.Content, err = svc.setStatus(ctx, sc, StatusApproved); err != nil {
		return ApproveResult{}, err
	}
	if f.Publish {
		if err = svc.feed.Invalidate(ctx); err != nil {
			svc.logger.Error("invalidating feed cache", err)
		}
	}
	return res, nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

func (svc *Service) Reject(ctx context.Context, id string) (Content, error) {
	sc, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Content{}, err
	}
	return svc.setStatus(ctx, sc, StatusRejected)
}

func (svc *Service) setStatus(ctx context.Context, sc Content, status string) (Content, error) {
	sc.Status = status
	sc.Touch(core.NowFunc().UTC())
	sc, err := svc.repo.Update(ctx, sc)
	return sc, errors.Wrap(err, "updating scraped content")
}
