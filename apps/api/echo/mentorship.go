package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/mentor"
)

type mentorshipApi struct {
	auth     *authenticator
	bookings *mentor.BookingService
	validate *validator.Validate
}

func registerMentorshipAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := mentorshipApi{
		auth:     auth,
		bookings: deps.BookingSvc,
		validate: deps.Validate,
	}

	g.POST("/mentors/:id/book", api.book, jwt)

	bg := g.Group("/bookings", jwt)
	bg.GET("", api.myBookings)
	bg.POST("/:id/cancel", api.cancel)
}

func (api *mentorshipApi) book(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data mentor.BookForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BookForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	bk, err := api.bookings.Book(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "booking mentor")
	}
	return ctx.JSON(http.StatusCreated, bk)
}

func (api *mentorshipApi) myBookings(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := &mentor.BookingFilter{Status: ctx.QueryParam("status"), UserID: usr.ID}
	filter.Clean()
	bks, err := api.bookings.Query(ctx.Request().Context(), filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying bookings")
	}
	if bks == nil {
		bks = []mentor.Booking{}
	}
	return ctx.JSON(http.StatusOK, bks)
}

func (api *mentorshipApi) cancel(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	bk, err := api.bookings.Cancel(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "cancelling booking")
	}
	return ctx.JSON(http.StatusOK, bk)
}
