package core

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// Repository is the persistence contract shared by every managed table.
// F is the table's query filter; a nil filter matches all rows.
type Repository[T any, F any] interface {
	Create(ctx context.Context, obj T) (T, error)
	Update(ctx context.Context, obj T) (T, error)
	Get(ctx context.Context, id string) (T, error)
	Query(ctx context.Context, filter F, ordering []DBOrdering) ([]T, error)
	Delete(ctx context.Context, ids ...string) (int, error)
}

// Record is implemented by every persisted model.
type Record interface {
	PK() string
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses "a,-b" into orderings; a leading "-" means descending.
func ParseOrdering(s string) []DBOrdering {
	var orderings []DBOrdering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

// StringArray is a []string persisted as a postgres text[].
type StringArray = pq.StringArray

// JSONValue marshals v for a jsonb column.
func JSONValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling jsonb value")
	}
	return b, nil
}

// ScanJSON unmarshals a jsonb column into dst.
func ScanJSON(src interface{}, dst interface{}) error {
	switch data := src.(type) {
	case nil:
		return nil
	case []byte:
		return errors.Wrap(json.Unmarshal(data, dst), "unmarshalling jsonb value")
	case string:
		return errors.Wrap(json.Unmarshal([]byte(data), dst), "unmarshalling jsonb value")
	default:
		return errors.Errorf("unsupported jsonb source type %T", src)
	}
}
