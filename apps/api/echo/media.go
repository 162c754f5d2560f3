package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/media"
)

const uploadField = "file"

var errMissingFile = core.NewValidationError(nil, core.FieldError{Field: uploadField, Error: "a file is required"})

type mediaApi struct {
	auth *authenticator
	svc  *media.Service
}

func registerMediaAPI(g *echo.Group, jwt echo.MiddlewareFunc, admin *echo.Group, auth *authenticator, deps ServerDeps) {
	api := mediaApi{auth: auth, svc: deps.MediaSvc}
	g.POST("/users/me/avatar", api.uploadAvatar, jwt)
	admin.POST("/media", api.upload)
}

// upload stores any image in the `folder` form field (defaults to media.DefaultFolder).
func (api *mediaApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		return errMissingFile
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	up, err := api.svc.Upload(ctx.Request().Context(), ctx.FormValue("folder"), fh.Filename, file)
	if err != nil {
		return errors.Wrap(err, "uploading media")
	}
	return ctx.JSON(http.StatusCreated, up)
}

func (api *mediaApi) uploadAvatar(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		return errMissingFile
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	usr, err = api.svc.SetAvatar(ctx.Request().Context(), usr, fh.Filename, file)
	if err != nil {
		return errors.Wrap(err, "setting avatar")
	}
	return ctx.JSON(http.StatusOK, usr)
}
