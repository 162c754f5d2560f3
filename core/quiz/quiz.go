package quiz

import (
	"database/sql/driver"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

// Kinds
const (
	KindKnowledge   = "knowledge"
	KindPersonality = "personality"
)

var (
	ErrNotFound        = core.NewNotFoundError("quiz")
	ErrAttemptNotFound = core.NewNotFoundError("quiz attempt")

	errNoCorrectOption = errors.New("knowledge questions need at least one correct option")
	errNoTrait         = errors.New("every option of a personality question needs a trait")
	errAnswerCount     = errors.New("one answer is required per question")
	errAnswerRange     = errors.New("an answer does not match any option")
)

type (
	Option struct {
		Text    string `json:"text" validate:"required,max=500"`
		Correct bool   `json:"correct,omitempty"`
		Trait   string `json:"trait,omitempty" validate:"max=32"`
	}

	Question struct {
		Text    string   `json:"text" validate:"required,max=1000"`
		Points  int      `json:"points,omitempty" validate:"gte=0,lte=1000"` // 0 means 1
		Options []Option `json:"options" validate:"min=2,max=10,dive"`
	}

	// Questions is stored as jsonb.
	Questions []Question

	// Answers holds the chosen option index of each question, stored as jsonb.
	Answers []int
)

func (q Question) points() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

func (qs Questions) Value() (driver.Value, error) {
	if qs == nil {
		qs = Questions{}
	}
	return core.JSONValue(qs)
}

func (qs *Questions) Scan(src interface{}) error { return core.ScanJSON(src, qs) }

func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		a = Answers{}
	}
	return core.JSONValue(a)
}

func (a *Answers) Scan(src interface{}) error { return core.ScanJSON(src, a) }

type Quiz struct {
	core.Model
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Kind         string    `db:"kind" json:"kind"`
	Category     string    `db:"category" json:"category"`
	PassingScore int       `db:"passing_score" json:"passing_score"` // percent
	Points       int       `db:"points" json:"points"`
	Questions    Questions `db:"questions" json:"questions"`
	IsPublished  bool      `db:"is_published" json:"is_published"`
}

// MaxScore is the score of a perfect knowledge attempt.
func (q Quiz) MaxScore() int {
	total := 0
	for _, qst := range q.Questions {
		total += qst.points()
	}
	return total
}

type (
	PublicOption struct {
		Text string `json:"text"`
	}

	PublicQuestion struct {
		Text    string         `json:"text"`
		Points  int            `json:"points"`
		Options []PublicOption `json:"options"`
	}

	// PublicQuiz is what members see: correct options and traits are left out.
	PublicQuiz struct {
		ID           string           `json:"id"`
		Title        string           `json:"title"`
		Description  string           `json:"description"`
		Kind         string           `json:"kind"`
		Category     string           `json:"category"`
		PassingScore int              `json:"passing_score"`
		Points       int              `json:"points"`
		Questions    []PublicQuestion `json:"questions"`
	}
)

func (q Quiz) Public() PublicQuiz {
	pq := PublicQuiz{
		ID:           q.ID,
		Title:        q.Title,
		Description:  q.Description,
		Kind:         q.Kind,
		Category:     q.Category,
		PassingScore: q.PassingScore,
		Points:       q.Points,
		Questions:    make([]PublicQuestion, 0, len(q.Questions)),
	}
	for _, qst := range q.Questions {
		pqst := PublicQuestion{Text: qst.Text, Points: qst.points(), Options: make([]PublicOption, 0, len(qst.Options))}
		for _, opt := range qst.Options {
			pqst.Options = append(pqst.Options, PublicOption{Text: opt.Text})
		}
		pq.Questions = append(pq.Questions, pqst)
	}
	return pq
}

type Form struct {
	core.FormID
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description"`
	Kind         string     `json:"kind" validate:"required,oneof=knowledge personality"`
	Category     string     `json:"category" validate:"max=64"`
	PassingScore int        `json:"passing_score" validate:"gte=0,lte=100"`
	Points       int        `json:"points" validate:"gte=0,lte=10000"`
	Questions    []Question `json:"questions" validate:"required,min=1,max=100,dive"`
	IsPublished  bool       `json:"is_published"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.Title = core.CleanString(f.Title)
	f.Description = core.CleanString(f.Description)
	f.Kind = core.CleanString(f.Kind, true /* lower */)
	f.Category = core.CleanString(f.Category, true /* lower */)
	for i := range f.Questions {
		qst := &f.Questions[i]
		qst.Text = core.CleanString(qst.Text)
		for j := range qst.Options {
			opt := &qst.Options[j]
			opt.Text = core.CleanString(opt.Text)
			opt.Trait = core.CleanString(opt.Trait, true /* lower */)
		}
	}
	if err := validate.Struct(f); err != nil {
		return err
	}

	for _, qst := range f.Questions {
		switch f.Kind {
		case KindKnowledge:
			if !hasCorrectOption(qst) {
				return core.NewValidationError(errNoCorrectOption, core.FieldError{Field: "questions", Error: errNoCorrectOption.Error()})
			}
		case KindPersonality:
			for _, opt := range qst.Options {
				if opt.Trait == "" {
					return core.NewValidationError(errNoTrait, core.FieldError{Field: "questions", Error: errNoTrait.Error()})
				}
			}
		}
	}
	return nil
}

func hasCorrectOption(qst Question) bool {
	for _, opt := range qst.Options {
		if opt.Correct {
			return true
		}
	}
	return false
}

type QueryFilter struct {
	Search      string `query:"search"` // title & description
	Kind        string `query:"kind"`
	Category    string `query:"category"`
	IsPublished *bool  `query:"is_published"`
	Limit       int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
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

type Attempt struct {
	core.Model
	QuizID   string  `db:"quiz_id" json:"quiz_id"`
	UserID   string  `db:"user_id" json:"user_id"`
	Answers  Answers `db:"answers" json:"answers"`
	Score    int     `db:"score" json:"score"`
	MaxScore int     `db:"max_score" json:"max_score"`
	Percent  int     `db:"percent" json:"percent"`
	Passed   bool    `db:"passed" json:"passed"`
	Outcome  string  `db:"outcome" json:"outcome"` // personality trait
}

type SubmitForm struct {
	Answers []int `json:"answers" validate:"required,dive,gte=0"`
}

func (f SubmitForm) Validate(validate *validator.Validate) error { return validate.Struct(f) }

type AttemptFilter struct {
	QuizID string `query:"quiz_id"`
	UserID string `query:"user_id"`
	Passed *bool  `query:"passed"`
	Limit  int    `query:"limit"`
}

func (qf *AttemptFilter) Clean() {
	qf.QuizID = core.CleanString(qf.QuizID, true /* lower */)
	qf.UserID = core.CleanString(qf.UserID, true /* lower */)
}

func (qf *AttemptFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}
