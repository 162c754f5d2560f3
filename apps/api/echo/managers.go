package echoapi

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/quiz"
)

// readOnlyForm stands in for the form of tables that are never saved through the API.
type readOnlyForm struct {
	core.FormID
}

func (*readOnlyForm) Validate(*validator.Validate) error { return nil }

// registerManagers mounts the admin managers of every table but users (see registerUserAPI).
func registerManagers(g *echo.Group, deps ServerDeps) {
	v := deps.Validate
	invalidateFeed := func(ctx context.Context) {
		if err := deps.FeedSvc.Invalidate(ctx); err != nil {
			deps.Logger.Error("invalidating feed cache", err)
		}
	}

	newManager("articles", deps.ArticleSvc.Query, deps.ArticleSvc.Get, deps.ArticleSvc.Save, deps.ArticleSvc.Delete, v).
		register(g)
	newManager("courses", deps.CourseSvc.Query, deps.CourseSvc.Get, deps.CourseSvc.Save, deps.CourseSvc.Delete, v).
		register(g)
	newManager("events", deps.EventSvc.Query, deps.EventSvc.Get, deps.EventSvc.Save, deps.EventSvc.Delete, v).
		register(g)
	newManager("opportunities", deps.OpportunitySvc.Query, deps.OpportunitySvc.Get, deps.OpportunitySvc.Save, deps.OpportunitySvc.Delete, v).
		notifying(invalidateFeed).
		register(g)
	newManager("learning-content", deps.LearningSvc.Query, deps.LearningSvc.Get, deps.LearningSvc.Save, deps.LearningSvc.Delete, v).
		notifying(invalidateFeed).
		register(g)
	newManager("challenges", deps.ChallengeSvc.Query, deps.ChallengeSvc.Get, deps.ChallengeSvc.Save, deps.ChallengeSvc.Delete, v).
		register(g)
	newManager("challenge-submissions", deps.SubmissionSvc.Query, deps.SubmissionSvc.Get, deps.SubmissionSvc.Save, deps.SubmissionSvc.Delete, v).
		register(g)
	newManager("quizzes", deps.QuizSvc.Query, deps.QuizSvc.Get, deps.QuizSvc.Save, deps.QuizSvc.Delete, v).
		register(g)
	newManager[quiz.Attempt, quiz.AttemptFilter, *quiz.AttemptFilter, readOnlyForm](
		"quiz-attempts", deps.AttemptSvc.Query, deps.AttemptSvc.Get, nil, deps.AttemptSvc.Delete, v,
	).register(g)
	newManager("mentors", deps.MentorSvc.Query, deps.MentorSvc.Get, deps.MentorSvc.Save, deps.MentorSvc.Delete, v).
		register(g)
	newManager("bookings", deps.BookingSvc.Query, deps.BookingSvc.Get, deps.BookingSvc.Save, deps.BookingSvc.Delete, v).
		register(g)
	newManager("payments", deps.PaymentSvc.Query, deps.PaymentSvc.Get, deps.PaymentSvc.Save, deps.PaymentSvc.Delete, v).
		register(g)
	newManager("subscriptions", deps.SubscriptionSvc.Query, deps.SubscriptionSvc.Get, deps.SubscriptionSvc.Save, deps.SubscriptionSvc.Delete, v).
		register(g)
	newManager("vouchers", deps.VoucherSvc.Query, deps.VoucherSvc.Get, deps.VoucherSvc.Save, deps.VoucherSvc.Delete, v).
		register(g)
	newManager("scraped-content", deps.ScrapeSvc.Query, deps.ScrapeSvc.Get, deps.ScrapeSvc.Save, deps.ScrapeSvc.Delete, v).
		register(g)
}

// registerCatalogAPI mounts the public read-only catalog.
func registerCatalogAPI(g *echo.Group, deps ServerDeps) {
	registerCatalog(g, "articles", deps.ArticleSvc.Query, deps.ArticleSvc.GetPublic) // by id or slug
	registerCatalog(g, "courses", deps.CourseSvc.Query, deps.CourseSvc.GetPublic)
	registerCatalog(g, "events", deps.EventSvc.Query, deps.EventSvc.GetPublic)
	registerCatalog(g, "opportunities", deps.OpportunitySvc.Query, deps.OpportunitySvc.GetPublic)
	registerCatalog(g, "learning-content", deps.LearningSvc.Query, deps.LearningSvc.GetPublic)
	registerCatalog(g, "challenges", deps.ChallengeSvc.Query, deps.ChallengeSvc.GetPublic)
	registerCatalog(g, "mentors", deps.MentorSvc.Query, deps.MentorSvc.GetPublic)
}
