package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/payment"
)

type paymentApi struct {
	auth          *authenticator
	payments      *payment.Service
	subscriptions *payment.SubscriptionService
	validate      *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := paymentApi{
		auth:          auth,
		payments:      deps.PaymentSvc,
		subscriptions: deps.SubscriptionSvc,
		validate:      deps.Validate,
	}

	pg := g.Group("/payments")
	pg.GET("/plans", api.plans)
	pg.GET("/quote", api.quote)
	pg.POST("/checkout", api.checkout, jwt)
	pg.GET("", api.myPayments, jwt)

	g.GET("/subscriptions", api.mySubscriptions, jwt)
}

func (api *paymentApi) plans(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.payments.Plans())
}

func (api *paymentApi) quote(ctx echo.Context) error {
	q, err := api.payments.Quote(ctx.Request().Context(), ctx.QueryParam("plan"), ctx.QueryParam("voucher_code"))
	if err != nil {
		return errors.Wrap(err, "quoting plan")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *paymentApi) checkout(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data payment.CheckoutForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckoutForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	pmt, err := api.payments.Checkout(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "checking out")
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *paymentApi) myPayments(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	pmts, err := api.payments.Query(ctx.Request().Context(), &payment.PaymentFilter{UserID: usr.ID}, nil)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if pmts == nil {
		pmts = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, pmts)
}

// mySubscriptions lists the current subscriptions of the user.
func (api *paymentApi) mySubscriptions(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.subscriptions.Current(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying subscriptions")
	}
	if subs == nil {
		subs = []payment.Subscription{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
