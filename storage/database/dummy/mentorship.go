package dummydb

import "github.com/trezcool/elimu/core/mentor"

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

func NewMentorRepository(db *DB) mentor.Repository {
	return &mentorRepository{table: db.mentor}
}

func NewBookingRepository(db *DB) mentor.BookingRepository {
	return &bookingRepository{table: db.booking}
}

func matchMentor(mtr mentor.Mentor, filter *mentor.QueryFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, mtr.Name, mtr.Headline, mtr.Bio) &&
		tagMatch(filter.Expertise, mtr.Expertise) &&
		boolMatch(filter.IsActive, mtr.IsActive)
}

func matchBooking(bk mentor.Booking, filter *mentor.BookingFilter) bool {
	if filter == nil {
		return true
	}
	return eqMatch(filter.MentorID, bk.MentorID) &&
		eqMatch(filter.UserID, bk.UserID) &&
		eqMatch(filter.Status, bk.Status)
}
