// Package dummydb is an in-memory implementation of the repositories, used by tests and local development.
package dummydb

import (
	"github.com/trezcool/elimu/core/article"
	"github.com/trezcool/elimu/core/challenge"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/event"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/mentor"
	"github.com/trezcool/elimu/core/opportunity"
	"github.com/trezcool/elimu/core/payment"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/scrape"
	"github.com/trezcool/elimu/core/user"
)

type DB struct {
	user          *table[user.User, *user.QueryFilter]
	article       *table[article.Article, *article.QueryFilter]
	course        *table[course.Course, *course.QueryFilter]
	event         *table[event.Event, *event.QueryFilter]
	opportunity   *table[opportunity.Opportunity, *opportunity.QueryFilter]
	learning      *table[learning.Content, *learning.QueryFilter]
	challenge     *table[challenge.Challenge, *challenge.QueryFilter]
	submission    *table[challenge.Submission, *challenge.SubmissionFilter]
	quiz          *table[quiz.Quiz, *quiz.QueryFilter]
	attempt       *table[quiz.Attempt, *quiz.AttemptFilter]
	mentor        *table[mentor.Mentor, *mentor.QueryFilter]
	booking       *table[mentor.Booking, *mentor.BookingFilter]
	payment       *table[payment.Payment, *payment.PaymentFilter]
	subscription  *table[payment.Subscription, *payment.SubscriptionFilter]
	voucher       *table[payment.Voucher, *payment.VoucherFilter]
	scrapeContent *table[scrape.Content, *scrape.QueryFilter]
}

func Open() *DB {
	return &DB{
		user:          newTable(user.ErrNotFound, matchUser),
		article:       newTable(article.ErrNotFound, matchArticle),
		course:        newTable(course.ErrNotFound, matchCourse),
		event:         newTable(event.ErrNotFound, matchEvent),
		opportunity:   newTable(opportunity.ErrNotFound, matchOpportunity),
		learning:      newTable(learning.ErrNotFound, matchLearning),
		challenge:     newTable(challenge.ErrNotFound, matchChallenge),
		submission:    newTable(challenge.ErrSubmissionNotFound, matchSubmission),
		quiz:          newTable(quiz.ErrNotFound, matchQuiz),
		attempt:       newTable(quiz.ErrAttemptNotFound, matchAttempt),
		mentor:        newTable(mentor.ErrNotFound, matchMentor),
		booking:       newTable(mentor.ErrBookingNotFound, matchBooking),
		payment:       newTable(payment.ErrNotFound, matchPayment),
		subscription:  newTable(payment.ErrSubscriptionNotFound, matchSubscription),
		voucher:       newTable(payment.ErrVoucherNotFound, matchVoucher),
		scrapeContent: newTable(scrape.ErrNotFound, matchScrapedContent),
	}
}
