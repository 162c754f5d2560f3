package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/scrape"
)

type scrapeApi struct {
	svc      *scrape.Service
	validate *validator.Validate
}

func registerScrapeAPI(admin *echo.Group, deps ServerDeps) {
	api := scrapeApi{
		svc:      deps.ScrapeSvc,
		validate: deps.Validate,
	}
	admin.POST("/scraped-content/trigger", api.trigger)
	admin.POST("/scraped-content/:id/approve", api.approve)
	admin.POST("/scraped-content/:id/reject", api.reject)
}

func (api *scrapeApi) trigger(ctx echo.Context) error {
	var data scrape.TriggerForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TriggerForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Trigger(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "triggering scrape")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *scrapeApi) approve(ctx echo.Context) error {
	var data scrape.ApproveForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ApproveForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "approving scraped content")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *scrapeApi) reject(ctx echo.Context) error {
	sc, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rejecting scraped content")
	}
	return ctx.JSON(http.StatusOK, sc)
}
