package mentor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/mentor"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/services/email"
	"github.com/trezcool/elimu/storage/database/dummy"
	"github.com/trezcool/elimu/tests"
)

type fixture struct {
	users    user.Repository
	mentors  *mentor.Service
	bookings *mentor.BookingService
	mentor   mentor.Mentor
	logger   *testutil.RecordingLogger
}

func setUp(t *testing.T) fixture {
	conf := testutil.NewConfig()
	db := dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf), conf)
	mentorSvc := mentor.NewService(dummydb.NewMentorRepository(db))
	logger := new(testutil.RecordingLogger)
	bookingSvc := mentor.NewBookingService(
		dummydb.NewBookingRepository(db), mentorSvc, usrSvc, emailsvc.NewConsoleServiceMock(conf), logger,
	)

	mtr, created, err := mentorSvc.Save(context.Background(), mentor.Form{
		Name:     "Ada",
		Email:    "ada@test.com",
		IsActive: true,
	})
	require.NoError(t, err)
	require.True(t, created)

	emailsvc.ResetSentMessages()
	return fixture{users: usrRepo, mentors: mentorSvc, bookings: bookingSvc, mentor: mtr, logger: logger}
}

func isFieldError(err error, field string) bool {
	verr, ok := err.(*core.ValidationError)
	if !ok {
		return false
	}
	for _, fe := range verr.Fields {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func TestBook(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	member := testutil.CreateMember(t, fx.users, "jane")
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)

	bk, err := fx.bookings.Book(ctx, member, fx.mentor.ID, mentor.BookForm{
		ScheduledAt:     start,
		DurationMinutes: 60,
		Topic:           "Career change",
	})
	require.NoError(t, err)
	assert.Equal(t, mentor.StatusPending, bk.Status)
	assert.Equal(t, member.ID, bk.UserID)
	assert.Equal(t, fx.mentor.ID, bk.MentorID)
	assert.NotEmpty(t, bk.ID)

	msgs := emailsvc.GetSentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ada@test.com", msgs[0].To[0].Address)
	assert.Equal(t, "booking_requested", msgs[0].TemplateName)
	assert.Contains(t, msgs[0].TextContent, "Career change")

	tests := []struct {
		name  string
		start time.Time
		dur   int
		field string
	}{
		{"overlapping start", start.Add(30 * time.Minute), 30, "scheduled_at"},
		{"overlapping end", start.Add(-30 * time.Minute), 45, "scheduled_at"},
		{"enclosing", start.Add(-time.Hour), 180, "scheduled_at"},
		{"past date", time.Now().Add(-time.Hour), 30, "scheduled_at"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.bookings.Book(ctx, member, fx.mentor.ID, mentor.BookForm{
				ScheduledAt:     tc.start,
				DurationMinutes: tc.dur,
				Topic:           "t",
			})
			assert.True(t, isFieldError(err, tc.field), "got %v", err)
		})
	}

	t.Run("adjacent slot", func(t *testing.T) {
		_, err := fx.bookings.Book(ctx, member, fx.mentor.ID, mentor.BookForm{
			ScheduledAt:     start.Add(time.Hour),
			DurationMinutes: 30,
			Topic:           "follow-up",
		})
		assert.NoError(t, err)
	})

	t.Run("slot freed by cancellation", func(t *testing.T) {
		_, err := fx.bookings.Cancel(ctx, member, bk.ID)
		require.NoError(t, err)
		_, err = fx.bookings.Book(ctx, member, fx.mentor.ID, mentor.BookForm{
			ScheduledAt:     start.Add(15 * time.Minute),
			DurationMinutes: 30,
			Topic:           "again",
		})
		assert.NoError(t, err)
	})
}

func TestBookInactiveMentor(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	member := testutil.CreateMember(t, fx.users, "jane")

	_, _, err := fx.mentors.Save(ctx, mentor.Form{FormID: core.FormID{ID: fx.mentor.ID}, Name: "Ada", IsActive: false})
	require.NoError(t, err)

	_, err = fx.bookings.Book(ctx, member, fx.mentor.ID, mentor.BookForm{
		ScheduledAt:     time.Now().Add(time.Hour),
		DurationMinutes: 30,
		Topic:           "t",
	})
	assert.True(t, core.IsNotFound(err))

	_, err = fx.bookings.Book(ctx, member, core.NewID(), mentor.BookForm{
		ScheduledAt:     time.Now().Add(time.Hour),
		DurationMinutes: 30,
		Topic:           "t",
	})
	assert.True(t, core.IsNotFound(err))
}

func TestCancel(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	member := testutil.CreateMember(t, fx.users, "jane")
	other := testutil.CreateMember(t, fx.users, "john")
	admin := testutil.CreateAdmin(t, fx.users, "root")

	book := func(offset time.Duration) mentor.Booking {
		bk, err := fx.bookings.Book(ctx, member, fx.mentor.ID, mentor.BookForm{
			ScheduledAt:     time.Now().Add(24*time.Hour + offset),
			DurationMinutes: 30,
			Topic:           "t",
		})
		require.NoError(t, err)
		return bk
	}

	bk := book(0)
	_, err := fx.bookings.Cancel(ctx, other, bk.ID)
	assert.True(t, mentor.IsForbidden(err))

	emailsvc.ResetSentMessages()
	bk, err = fx.bookings.Cancel(ctx, member, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, mentor.StatusCancelled, bk.Status)

	msgs := emailsvc.GetSentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "jane@test.com", msgs[0].To[0].Address)
	assert.Equal(t, "booking_status", msgs[0].TemplateName)

	_, err = fx.bookings.Cancel(ctx, member, bk.ID)
	assert.True(t, isFieldError(err, "status"), "got %v", err)

	bk = book(2 * time.Hour)
	bk, err = fx.bookings.Cancel(ctx, admin, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, mentor.StatusCancelled, bk.Status)

	_, err = fx.bookings.Cancel(ctx, admin, core.NewID())
	assert.True(t, core.IsNotFound(err))
}

func TestSaveBookingNotifiesOnStatusChange(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	member := testutil.CreateMember(t, fx.users, "jane")
	at := time.Now().Add(72 * time.Hour).UTC()

	form := mentor.BookingForm{
		MentorID:        fx.mentor.ID,
		UserID:          member.ID,
		ScheduledAt:     at,
		DurationMinutes: 45,
		Status:          mentor.StatusPending,
	}
	bk, created, err := fx.bookings.Save(ctx, form)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, emailsvc.GetSentMessages())

	form.ID = bk.ID
	form.Topic = "renamed"
	_, created, err = fx.bookings.Save(ctx, form)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, emailsvc.GetSentMessages(), "no status change")

	form.Status = mentor.StatusConfirmed
	bk, _, err = fx.bookings.Save(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, mentor.StatusConfirmed, bk.Status)
	msgs := emailsvc.GetSentMessages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].TextContent, "confirmed")

	t.Run("unknown mentor", func(t *testing.T) {
		f := form
		f.ID = ""
		f.MentorID = core.NewID()
		_, _, err := fx.bookings.Save(ctx, f)
		assert.True(t, isFieldError(err, "mentor_id"), "got %v", err)
	})

	t.Run("overlap", func(t *testing.T) {
		f := form
		f.ID = ""
		f.ScheduledAt = at.Add(15 * time.Minute)
		_, _, err := fx.bookings.Save(ctx, f)
		assert.True(t, isFieldError(err, "scheduled_at"), "got %v", err)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := form
		f.ID = core.NewID()
		_, _, err := fx.bookings.Save(ctx, f)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestSaveBookingLogsMissingMember(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	member := testutil.CreateMember(t, fx.users, "jane")

	form := mentor.BookingForm{
		MentorID:        fx.mentor.ID,
		UserID:          member.ID,
		ScheduledAt:     time.Now().Add(72 * time.Hour).UTC(),
		DurationMinutes: 30,
		Status:          mentor.StatusPending,
	}
	bk, _, err := fx.bookings.Save(ctx, form)
	require.NoError(t, err)

	_, err = fx.users.Delete(ctx, member.ID)
	require.NoError(t, err)

	form.ID = bk.ID
	form.Status = mentor.StatusConfirmed
	bk, _, err = fx.bookings.Save(ctx, form)
	require.NoError(t, err, "the status change is kept")
	assert.Equal(t, mentor.StatusConfirmed, bk.Status)
	assert.Empty(t, emailsvc.GetSentMessages())

	logged := fx.logger.Errors()
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "user "+member.ID+" lookup failed")
}
