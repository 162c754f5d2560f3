package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

type (
	filterPtr[F any] interface {
		*F
		Clean()
	}

	publicFilterPtr[F any] interface {
		filterPtr[F]
		Public()
	}

	formPtr[Form any] interface {
		*Form
		Validate(validate *validator.Validate) error
		SetID(id string)
	}

	queryFunc[T any, FP any]  func(ctx context.Context, filter FP, ordering []core.DBOrdering) ([]T, error)
	getFunc[T any]            func(ctx context.Context, id string) (T, error)
	saveFunc[T any, Form any] func(ctx context.Context, f Form) (T, bool, error)
	deleteFunc                func(ctx context.Context, ids ...string) (int, error)

	// manager exposes the admin CRUD endpoints of one table.
	manager[T any, F any, FP filterPtr[F], Form any, FormP formPtr[Form]] struct {
		name     string
		query    queryFunc[T, FP]
		get      getFunc[T]
		save     saveFunc[T, Form] // nil for read-only tables
		delete   deleteFunc
		validate *validator.Validate
		onChange func(ctx context.Context) // called after a successful save or delete
	}

	DeleteResponse struct {
		Deleted int `json:"deleted"`
	}
)

func newManager[T any, F any, FP filterPtr[F], Form any, FormP formPtr[Form]](
	name string,
	query func(ctx context.Context, filter FP, ordering []core.DBOrdering) ([]T, error),
	get func(ctx context.Context, id string) (T, error),
	save func(ctx context.Context, f Form) (T, bool, error),
	del func(ctx context.Context, ids ...string) (int, error),
	validate *validator.Validate,
) *manager[T, F, FP, Form, FormP] {
	return &manager[T, F, FP, Form, FormP]{
		name:     name,
		query:    query,
		get:      get,
		save:     save,
		delete:   del,
		validate: validate,
	}
}

func (m *manager[T, F, FP, Form, FormP]) notifying(fn func(ctx context.Context)) *manager[T, F, FP, Form, FormP] {
	m.onChange = fn
	return m
}

func (m *manager[T, F, FP, Form, FormP]) register(g *echo.Group) {
	mg := g.Group("/" + m.name)
	mg.GET("", m.list)
	mg.GET("/:id", m.retrieve)
	if m.save != nil {
		mg.POST("", m.create)
		mg.PUT("/:id", m.update)
	}
	mg.DELETE("", m.destroyMultiple, confirmMiddleware)
	mg.DELETE("/:id", m.destroy, confirmMiddleware)
}

func (m *manager[T, F, FP, Form, FormP]) changed(ctx echo.Context) {
	if m.onChange != nil {
		m.onChange(ctx.Request().Context())
	}
}

func (m *manager[T, F, FP, Form, FormP]) list(ctx echo.Context) error {
	filter := FP(new(F))
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding filter")
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	objs, err := m.query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrapf(err, "querying %s", m.name)
	}
	if objs == nil {
		objs = []T{}
	}
	return ctx.JSON(http.StatusOK, objs)
}

func (m *manager[T, F, FP, Form, FormP]) retrieve(ctx echo.Context) error {
	obj, err := m.get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrapf(err, "getting %s", m.name)
	}
	return ctx.JSON(http.StatusOK, obj)
}

func (m *manager[T, F, FP, Form, FormP]) bindForm(ctx echo.Context, id string) (Form, error) {
	var f Form
	if err := ctx.Bind(FormP(&f)); err != nil {
		return f, errors.Wrap(err, "binding form")
	}
	FormP(&f).SetID(id)
	return f, FormP(&f).Validate(m.validate)
}

func (m *manager[T, F, FP, Form, FormP]) create(ctx echo.Context) error {
	return m.saveForm(ctx, "")
}

func (m *manager[T, F, FP, Form, FormP]) update(ctx echo.Context) error {
	return m.saveForm(ctx, ctx.Param("id"))
}

func (m *manager[T, F, FP, Form, FormP]) saveForm(ctx echo.Context, id string) error {
	f, err := m.bindForm(ctx, id)
	if err != nil {
		return err
	}
	obj, created, err := m.save(ctx.Request().Context(), f)
	if err != nil {
		return errors.Wrapf(err, "saving %s", m.name)
	}
	m.changed(ctx)

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, obj)
}

func (m *manager[T, F, FP, Form, FormP]) destroy(ctx echo.Context) error {
	n, err := m.delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrapf(err, "deleting %s", m.name)
	}
	if n == 0 {
		return errHttpNotFound
	}
	m.changed(ctx)
	return ctx.NoContent(http.StatusNoContent)
}

func (m *manager[T, F, FP, Form, FormP]) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.JSON(http.StatusOK, DeleteResponse{})
	}

	n, err := m.delete(ctx.Request().Context(), query.IDs...)
	if err != nil {
		return errors.Wrapf(err, "deleting %s", m.name)
	}
	m.changed(ctx)
	return ctx.JSON(http.StatusOK, DeleteResponse{Deleted: n})
}

// catalog exposes the public, read-only view of a table.
type catalog[T any, F any, FP publicFilterPtr[F]] struct {
	name  string
	query queryFunc[T, FP]
	get   getFunc[T]
}

func registerCatalog[T any, F any, FP publicFilterPtr[F]](
	g *echo.Group,
	name string,
	query func(ctx context.Context, filter FP, ordering []core.DBOrdering) ([]T, error),
	get func(ctx context.Context, id string) (T, error),
) {
	c := &catalog[T, F, FP]{name: name, query: query, get: get}
	g.GET("/"+name, c.list)
	g.GET("/"+name+"/:id", c.retrieve)
}

func (c *catalog[T, F, FP]) list(ctx echo.Context) error {
	filter := FP(new(F))
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding filter")
	}
	filter.Clean()
	filter.Public()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	objs, err := c.query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrapf(err, "querying %s", c.name)
	}
	if objs == nil {
		objs = []T{}
	}
	return ctx.JSON(http.StatusOK, objs)
}

func (c *catalog[T, F, FP]) retrieve(ctx echo.Context) error {
	obj, err := c.get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrapf(err, "getting %s", c.name)
	}
	return ctx.JSON(http.StatusOK, obj)
}
