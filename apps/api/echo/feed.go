package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/feed"
)

type feedApi struct {
	auth *authenticator
	svc  *feed.Service
}

func registerFeedAPI(g *echo.Group, auth *authenticator, svc *feed.Service) {
	api := feedApi{auth: auth, svc: svc}
	g.GET("/learning", api.learning)
	g.GET("/opportunities", api.opportunities)
}

func (api *feedApi) learning(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	items, err := api.svc.Learning(ctx.Request().Context(), usr, queryLimit(ctx))
	if err != nil {
		return errors.Wrap(err, "ranking learning content")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *feedApi) opportunities(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	items, err := api.svc.Opportunities(ctx.Request().Context(), usr, queryLimit(ctx))
	if err != nil {
		return errors.Wrap(err, "ranking opportunities")
	}
	return ctx.JSON(http.StatusOK, items)
}
