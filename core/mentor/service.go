package mentor

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

const dateLayout = "Mon, 02 Jan 2006 15:04 MST"

var (
	ErrNotFound        = core.NewNotFoundError("mentor")
	ErrBookingNotFound = core.NewNotFoundError("booking")

	errPastDate      = errors.New("the session must be scheduled in the future")
	errSlotTaken     = errors.New("the mentor is not available at this time")
	errNotCancelable = errors.New("this booking can no longer be cancelled")
	errForbidden     = errors.New("only the member who booked or an admin can cancel a booking")
)

type (
	Repository interface {
		core.Repository[Mentor, *QueryFilter]
	}

	BookingRepository interface {
		core.Repository[Booking, *BookingFilter]
	}

	UserGetter interface {
		Get(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo Repository
	}

	BookingService struct {
		repo    BookingRepository
		mentors *Service
		users   UserGetter
		mailSvc core.EmailService
		logger  core.Logger
	}

	bookingRequestedData struct {
		MentorName      string
		MemberName      string
		DurationMinutes int
		ScheduledAt     string
		Topic           string
	}

	bookingStatusData struct {
		MemberName  string
		MentorName  string
		ScheduledAt string
		Status      string
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Mentor, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Mentor, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetPublic(ctx context.Context, id string) (Mentor, error) {
	mtr, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Mentor{}, err
	}
	if !mtr.IsActive {
		return Mentor{}, ErrNotFound
	}
	return mtr, nil
}

func (svc *Service) Save(ctx context.Context, f Form) (Mentor, bool, error) {
	return core.Save[Mentor, *Mentor, *QueryFilter](ctx, svc.repo, f.ID, func(mtr *Mentor) error {
		mtr.UserID = null.NewString(f.UserID, f.UserID != "")
		mtr.Name = f.Name
		mtr.Email = f.Email
		mtr.Headline = f.Headline
		mtr.Bio = f.Bio
		mtr.Expertise = f.Expertise
		mtr.AvatarURL = f.AvatarURL
		mtr.HourlyRate = f.HourlyRate
		mtr.IsActive = f.IsActive
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}

func NewBookingService(
	repo BookingRepository,
	mentorSvc *Service,
	users UserGetter,
	mailSvc core.EmailService,
	logger core.Logger,
) *BookingService {
	return &BookingService{repo: repo, mentors: mentorSvc, users: users, mailSvc: mailSvc, logger: logger}
}

func (svc *BookingService) Query(ctx context.Context, filter *BookingFilter, ordering []core.DBOrdering) ([]Booking, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *BookingService) Get(ctx context.Context, id string) (Booking, error) {
	return svc.repo.Get(ctx, id)
}

// checkAvailability returns a validation error when bk overlaps a pending or confirmed booking of its mentor.
func (svc *BookingService) checkAvailability(ctx context.Context, bk Booking) error {
	if !bk.IsBlocking() {
		return nil
	}
	others, err := svc.repo.Query(ctx, &BookingFilter{MentorID: bk.MentorID}, nil)
	if err != nil {
		return errors.Wrap(err, "querying bookings")
	}
	for _, other := range others {
		if other.ID != bk.ID && other.IsBlocking() && bk.Overlaps(other) {
			return core.NewValidationError(errSlotTaken, core.FieldError{Field: "scheduled_at", Error: errSlotTaken.Error()})
		}
	}
	return nil
}

// Book requests a session with an active mentor. The mentor is notified by email.
func (svc *BookingService) Book(ctx context.Context, usr user.User, mentorID string, f BookForm) (Booking, error) {
	mtr, err := svc.mentors.GetPublic(ctx, mentorID)
	if err != nil {
		return Booking{}, err
	}
	now := core.NowFunc().UTC()
	if !f.ScheduledAt.After(now) {
		return Booking{}, core.NewValidationError(errPastDate, core.FieldError{Field: "scheduled_at", Error: errPastDate.Error()})
	}

	bk := Booking{
		MentorID:        mtr.ID,
		UserID:          usr.ID,
		ScheduledAt:     f.ScheduledAt.UTC(),
		DurationMinutes: f.DurationMinutes,
		Topic:           f.Topic,
		Notes:           f.Notes,
		Status:          StatusPending,
	}
	if err = svc.checkAvailability(ctx, bk); err != nil {
		return Booking{}, err
	}
	bk.Touch(now)
	if bk, err = svc.repo.Create(ctx, bk); err != nil {
		return Booking{}, errors.Wrap(err, "creating booking")
	}

	if mtr.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: mtr.Name, Address: mtr.Email}},
			Subject:      "New mentorship session request",
			TemplateName: "booking_requested",
			TemplateData: bookingRequestedData{
				MentorName:      mtr.Name,
				MemberName:      usr.Name,
				DurationMinutes: bk.DurationMinutes,
				ScheduledAt:     bk.ScheduledAt.Format(dateLayout),
				Topic:           bk.Topic,
			},
		})
	}
	return bk, nil
}

// Cancel cancels a pending or confirmed booking on behalf of its member or an admin.
func (svc *BookingService) Cancel(ctx context.Context, usr user.User, id string) (Booking, error) {
	bk, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	if bk.UserID != usr.ID && !usr.IsAdmin() {
		return Booking{}, errForbidden
	}
	if !bk.IsBlocking() {
		return Booking{}, core.NewValidationError(errNotCancelable, core.FieldError{Field: "status", Error: errNotCancelable.Error()})
	}
	bk.Status = StatusCancelled
	bk.Touch(core.NowFunc().UTC())
	if bk, err = svc.repo.Update(ctx, bk); err != nil {
		return Booking{}, errors.Wrap(err, "updating booking")
	}
	svc.notifyStatus(ctx, bk)
	return bk, nil
}

// IsForbidden reports whether err was returned because the user may not act on a booking.
func IsForbidden(err error) bool {
	return errors.Cause(err) == errForbidden
}

// Save is used by admins to confirm, complete or reschedule bookings. The member is emailed on status change.
func (svc *BookingService) Save(ctx context.Context, f BookingForm) (Booking, bool, error) {
	var prevStatus string
	bk, created, err := core.Save[Booking, *Booking, *BookingFilter](ctx, svc.repo, f.ID, func(bk *Booking) error {
		if _, err := svc.mentors.Get(ctx, f.MentorID); err != nil {
			if core.IsNotFound(err) {
				return core.NewValidationError(err, core.FieldError{Field: "mentor_id", Error: err.Error()})
			}
			return errors.Wrap(err, "finding mentor")
		}
		prevStatus = bk.Status
		bk.MentorID = f.MentorID
		bk.UserID = f.UserID
		bk.ScheduledAt = f.ScheduledAt.UTC()
		bk.DurationMinutes = f.DurationMinutes
		bk.Topic = f.Topic
		bk.Notes = f.Notes
		bk.Status = f.Status
		return svc.checkAvailability(ctx, *bk)
	})
	if err != nil {
		return bk, created, err
	}
	if !created && prevStatus != bk.Status {
		svc.notifyStatus(ctx, bk)
	}
	return bk, created, nil
}

func (svc *BookingService) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}

// notifyStatus emails the member about the new status of a booking. Lookup failures are logged and skip the email.
func (svc *BookingService) notifyStatus(ctx context.Context, bk Booking) {
	member, err := svc.users.Get(ctx, bk.UserID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("booking %s: no status email sent, user %s lookup failed", bk.ID, bk.UserID), err)
		return
	}
	if member.Email == "" {
		return
	}
	mtr, err := svc.mentors.Get(ctx, bk.MentorID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("booking %s: no status email sent, mentor %s lookup failed", bk.ID, bk.MentorID), err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: member.Name, Address: member.Email}},
		Subject:      "Your mentorship session is " + bk.Status,
		TemplateName: "booking_status",
		TemplateData: bookingStatusData{
			MemberName:  member.Name,
			MentorName:  mtr.Name,
			ScheduledAt: bk.ScheduledAt.In(time.UTC).Format(dateLayout),
			Status:      bk.Status,
		},
	})
}
