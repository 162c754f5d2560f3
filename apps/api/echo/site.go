package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/site"
)

func registerSiteAPI(g *echo.Group, svc *site.Service) {
	g.GET("/highlights", func(ctx echo.Context) error {
		hl, err := svc.Highlights(ctx.Request().Context())
		if err != nil {
			return errors.Wrap(err, "getting highlights")
		}
		return ctx.JSON(http.StatusOK, hl)
	})
}
