package challenge

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

// Submission statuses
const (
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

var (
	ErrNotFound           = core.NewNotFoundError("challenge")
	ErrSubmissionNotFound = core.NewNotFoundError("challenge submission")

	errEndsBeforeStart = errors.New("the challenge cannot end before it starts")
	errNotOpen         = errors.New("this challenge is not open for submissions")
)

type Challenge struct {
	core.Model
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`
	Difficulty  string           `db:"difficulty" json:"difficulty"`
	Points      int              `db:"points" json:"points"`
	Tags        core.StringArray `db:"tags" json:"tags"`
	StartsAt    null.Time        `db:"starts_at" json:"starts_at"`
	EndsAt      null.Time        `db:"ends_at" json:"ends_at"`
	IsActive    bool             `db:"is_active" json:"is_active"`
}

// IsOpen reports whether submissions are accepted at t.
func (c Challenge) IsOpen(t time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.StartsAt.Valid && t.Before(c.StartsAt.Time) {
		return false
	}
	return !(c.EndsAt.Valid && t.After(c.EndsAt.Time))
}

type Form struct {
	core.FormID
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Points      int       `json:"points" validate:"gte=0,lte=10000"`
	Tags        []string  `json:"tags" validate:"max=20,tags"`
	StartsAt    null.Time `json:"starts_at"`
	EndsAt      null.Time `json:"ends_at"`
	IsActive    bool      `json:"is_active"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.Title = core.CleanString(f.Title)
	f.Description = core.CleanString(f.Description)
	f.Difficulty = core.CleanString(f.Difficulty, true /* lower */)
	f.Tags = core.CleanTags(f.Tags)
	if err := validate.Struct(f); err != nil {
		return err
	}
	if f.StartsAt.Valid && f.EndsAt.Valid && f.EndsAt.Time.Before(f.StartsAt.Time) {
		return core.NewValidationError(errEndsBeforeStart, core.FieldError{Field: "ends_at", Error: errEndsBeforeStart.Error()})
	}
	return nil
}

type QueryFilter struct {
	Search     string `query:"search"` // title & description
	Difficulty string `query:"difficulty"`
	Tag        string `query:"tag"`
	IsActive   *bool  `query:"is_active"`
	Limit      int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Difficulty = core.CleanString(qf.Difficulty, true /* lower */)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
}

func (qf *QueryFilter) Public() {
	active := true
	qf.IsActive = &active
}

func (qf *QueryFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}

type Submission struct {
	core.Model
	ChallengeID   string `db:"challenge_id" json:"challenge_id"`
	UserID        string `db:"user_id" json:"user_id"`
	Content       string `db:"content" json:"content"`
	Status        string `db:"status" json:"status"`
	PointsAwarded int    `db:"points_awarded" json:"points_awarded"`
}

// SubmitForm is what a member sends to take part in a challenge.
type SubmitForm struct {
	Content string `json:"content" validate:"required,max=10000"`
}

func (f *SubmitForm) Validate(validate *validator.Validate) error {
	f.Content = core.CleanString(f.Content)
	return validate.Struct(f)
}

// SubmissionForm is used by admins to review (or fix) submissions.
type SubmissionForm struct {
	core.FormID
	ChallengeID string `json:"challenge_id" validate:"required,uuid"`
	UserID      string `json:"user_id" validate:"required,uuid"`
	Content     string `json:"content" validate:"required,max=10000"`
	Status      string `json:"status" validate:"required,oneof=submitted approved rejected"`
}

func (f *SubmissionForm) Validate(validate *validator.Validate) error {
	f.ChallengeID = core.CleanString(f.ChallengeID, true /* lower */)
	f.UserID = core.CleanString(f.UserID, true /* lower */)
	f.Content = core.CleanString(f.Content)
	f.Status = core.CleanString(f.Status, true /* lower */)
	return validate.Struct(f)
}

type SubmissionFilter struct {
	ChallengeID string `query:"challenge_id"`
	UserID      string `query:"user_id"`
	Status      string `query:"status"`
	Limit       int    `query:"limit"`
}

func (qf *SubmissionFilter) Clean() {
	qf.ChallengeID = core.CleanString(qf.ChallengeID, true /* lower */)
	qf.UserID = core.CleanString(qf.UserID, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

func (qf *SubmissionFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}
