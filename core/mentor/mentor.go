package mentor

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

// Booking statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"

	MinDuration = 15  // minutes
	MaxDuration = 180 // minutes
)

type Mentor struct {
	core.Model
	UserID     null.String      `db:"user_id" json:"user_id"`
	Name       string           `db:"name" json:"name"`
	Email      string           `db:"email" json:"email"`
	Headline   string           `db:"headline" json:"headline"`
	Bio        string           `db:"bio" json:"bio"`
	Expertise  core.StringArray `db:"expertise" json:"expertise"`
	AvatarURL  string           `db:"avatar_url" json:"avatar_url"`
	HourlyRate int64            `db:"hourly_rate" json:"hourly_rate"` // cents
	IsActive   bool             `db:"is_active" json:"is_active"`
}

type Form struct {
	core.FormID
	UserID     string   `json:"user_id" validate:"omitempty,uuid"`
	Name       string   `json:"name" validate:"required,max=100"`
	Email      string   `json:"email" validate:"omitempty,email"`
	Headline   string   `json:"headline" validate:"max=200"`
	Bio        string   `json:"bio"`
	Expertise  []string `json:"expertise" validate:"max=20,tags"`
	AvatarURL  string   `json:"avatar_url" validate:"omitempty,url"`
	HourlyRate int64    `json:"hourly_rate" validate:"gte=0"`
	IsActive   bool     `json:"is_active"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.UserID = core.CleanString(f.UserID, true /* lower */)
	f.Name = core.CleanString(f.Name)
	f.Email = core.CleanString(f.Email, true /* lower */)
	f.Headline = core.CleanString(f.Headline)
	f.Bio = core.CleanString(f.Bio)
	f.Expertise = core.CleanTags(f.Expertise)
	f.AvatarURL = core.CleanString(f.AvatarURL)
	return validate.Struct(f)
}

type QueryFilter struct {
	Search    string `query:"search"` // name, headline & bio
	Expertise string `query:"expertise"`
	IsActive  *bool  `query:"is_active"`
	Limit     int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Expertise = core.CleanString(qf.Expertise, true /* lower */)
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

type Booking struct {
	core.Model
	MentorID        string    `db:"mentor_id" json:"mentor_id"`
	UserID          string    `db:"user_id" json:"user_id"`
	ScheduledAt     time.Time `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Topic           string    `db:"topic" json:"topic"`
	Notes           string    `db:"notes" json:"notes"`
	Status          string    `db:"status" json:"status"`
}

func (b Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// IsBlocking reports whether the booking holds its time slot.
func (b Booking) IsBlocking() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Overlaps reports whether both bookings share some time.
func (b Booking) Overlaps(other Booking) bool {
	return b.ScheduledAt.Before(other.EndsAt()) && other.ScheduledAt.Before(b.EndsAt())
}

// BookForm is sent by members to request a session.
type BookForm struct {
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gte=15,lte=180"`
	Topic           string    `json:"topic" validate:"required,max=200"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

func (f *BookForm) Validate(validate *validator.Validate) error {
	f.Topic = core.CleanString(f.Topic)
	f.Notes = core.CleanString(f.Notes)
	return validate.Struct(f)
}

// BookingForm is used by admins to manage bookings.
type BookingForm struct {
	core.FormID
	MentorID        string    `json:"mentor_id" validate:"required,uuid"`
	UserID          string    `json:"user_id" validate:"required,uuid"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gte=15,lte=180"`
	Topic           string    `json:"topic" validate:"max=200"`
	Notes           string    `json:"notes" validate:"max=2000"`
	Status          string    `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

func (f *BookingForm) Validate(validate *validator.Validate) error {
	f.MentorID = core.CleanString(f.MentorID, true /* lower */)
	f.UserID = core.CleanString(f.UserID, true /* lower */)
	f.Topic = core.CleanString(f.Topic)
	f.Notes = core.CleanString(f.Notes)
	f.Status = core.CleanString(f.Status, true /* lower */)
	return validate.Struct(f)
}

type BookingFilter struct {
	MentorID string `query:"mentor_id"`
	UserID   string `query:"user_id"`
	Status   string `query:"status"`
	Limit    int    `query:"limit"`
}

func (qf *BookingFilter) Clean() {
	qf.MentorID = core.CleanString(qf.MentorID, true /* lower */)
	qf.UserID = core.CleanString(qf.UserID, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

func (qf *BookingFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}
