package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/core"
)

const (
	orderingParam = "ordering"
	confirmParam  = "confirm"
	limitParam    = "limit"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	if val := ctx.QueryParam(orderingParam); val != "" {
		ord.Orderings = core.ParseOrdering(val)
	}
}

// DestroyMultipleRequest binds the ids of a bulk delete (`?id=..&id=..`).
type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}

// queryLimit reads the optional `limit` query param; invalid values count as 0 (service default).
func queryLimit(ctx echo.Context) int {
	limit, err := strconv.Atoi(ctx.QueryParam(limitParam))
	if err != nil {
		return 0
	}
	return limit
}
