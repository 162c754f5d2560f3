package sqlxrepos

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/elimu/core/mentor"
)

type (
	mentorRepository struct {
		*table[mentor.Mentor, *mentor.QueryFilter]
	}
	bookingRepository struct {
		*table[mentor.Booking, *mentor.BookingFilter]
	}
)

// interface compliance checks
var (
	_ mentor.Repository        = (*mentorRepository)(nil)
	_ mentor.BookingRepository = (*bookingRepository)(nil)
)

func NewMentorRepository(db *sqlx.DB) mentor.Repository {
	return &mentorRepository{table: newTable[mentor.Mentor](db, "mentors", mentor.ErrNotFound, mentorWhere)}
}

func NewBookingRepository(db *sqlx.DB) mentor.BookingRepository {
	return &bookingRepository{table: newTable[mentor.Booking](db, "bookings", mentor.ErrBookingNotFound, bookingWhere)}
}

func mentorWhere(filter *mentor.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(
		search(filter.Search, "name", "headline", "bio"),
		hasTag("expertise", filter.Expertise),
		isTrue("is_active", filter.IsActive),
	)
}

func bookingWhere(filter *mentor.BookingFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(
		eqID("mentor_id", filter.MentorID),
		eqID("user_id", filter.UserID),
		eq("status", filter.Status),
	)
}
