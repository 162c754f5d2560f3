package core

import (
	"context"
	"time"
)

var NowFunc = time.Now // mockable

// Model holds the columns shared by every table.
type Model struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // UTC
}

func (m Model) PK() string { return m.ID }

func (m Model) IsNew() bool { return m.ID == "" }

// Touch assigns the primary key of new rows and refreshes the timestamps.
func (m *Model) Touch(now time.Time) {
	if m.ID == "" {
		m.ID = NewID()
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Toucher is implemented by pointers to models embedding Model.
type Toucher[T any] interface {
	*T
	Touch(now time.Time)
}

// Save inserts a new row when id is empty, otherwise it loads the row (core.NotFoundError if missing)
// and updates it. apply copies the form's fields onto the row.
func Save[T any, P Toucher[T], F any](
	ctx context.Context, repo Repository[T, F], id string, apply func(obj *T) error,
) (obj T, created bool, err error) {
	created = id == ""
	if !created {
		if obj, err = repo.Get(ctx, id); err != nil {
			return obj, false, err
		}
	}
	if err = apply(&obj); err != nil {
		return obj, created, err
	}
	P(&obj).Touch(NowFunc().UTC())

	if created {
		obj, err = repo.Create(ctx, obj)
	} else {
		obj, err = repo.Update(ctx, obj)
	}
	return obj, created, err
}

// FormID is embedded by the forms of managed tables: an empty ID inserts, otherwise the row is updated.
type FormID struct {
	ID string `json:"id"`
}

func (f *FormID) SetID(id string) { f.ID = id }
