package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/challenge"
	"github.com/trezcool/elimu/core/quiz"
)

type gamificationApi struct {
	auth        *authenticator
	quizzes     *quiz.Service
	attempts    *quiz.AttemptService
	submissions *challenge.SubmissionService
	validate    *validator.Validate
}

func registerGamificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := gamificationApi{
		auth:        auth,
		quizzes:     deps.QuizSvc,
		attempts:    deps.AttemptSvc,
		submissions: deps.SubmissionSvc,
		validate:    deps.Validate,
	}

	qg := g.Group("/quizzes")
	qg.GET("", api.queryQuizzes)
	qg.GET("/:id", api.retrieveQuiz)
	qg.POST("/:id/submit", api.submitQuiz, jwt)
	qg.GET("/attempts", api.myAttempts, jwt)

	g.POST("/challenges/:id/submit", api.submitChallenge, jwt)
	g.GET("/challenges/submissions", api.mySubmissions, jwt)
}

func (api *gamificationApi) queryQuizzes(ctx echo.Context) error {
	filter := new(quiz.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	filter.Public()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	quizzes, err := api.quizzes.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	pqs := make([]quiz.PublicQuiz, 0, len(quizzes))
	for _, q := range quizzes {
		pqs = append(pqs, q.Public())
	}
	return ctx.JSON(http.StatusOK, pqs)
}

func (api *gamificationApi) retrieveQuiz(ctx echo.Context) error {
	q, err := api.quizzes.GetPublic(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting quiz")
	}
	return ctx.JSON(http.StatusOK, q.Public())
}

func (api *gamificationApi) submitQuiz(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data quiz.SubmitForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.quizzes.Submit(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *gamificationApi) myAttempts(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := &quiz.AttemptFilter{QuizID: core.CleanString(ctx.QueryParam("quiz_id"), true /* lower */), UserID: usr.ID}
	atts, err := api.attempts.Query(ctx.Request().Context(), filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	if atts == nil {
		atts = []quiz.Attempt{}
	}
	return ctx.JSON(http.StatusOK, atts)
}

func (api *gamificationApi) submitChallenge(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data challenge.SubmitForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.submissions.Submit(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting challenge")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *gamificationApi) mySubmissions(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := &challenge.SubmissionFilter{ChallengeID: ctx.QueryParam("challenge_id"), UserID: usr.ID}
	filter.Clean()
	subs, err := api.submissions.Query(ctx.Request().Context(), filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []challenge.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
