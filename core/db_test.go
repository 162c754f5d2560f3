package core

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []DBOrdering
	}{
		{name: "empty", in: "", want: nil},
		{name: "single asc", in: "name", want: []DBOrdering{{Field: "name", Ascending: true}}},
		{
			name: "mixed", in: "is_active, -name",
			want: []DBOrdering{{Field: "is_active", Ascending: true}, {Field: "name", Ascending: false}},
		},
		{name: "blank fields skipped", in: ",-,name", want: []DBOrdering{{Field: "name", Ascending: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrdering(tt.in))
		})
	}
	assert.Equal(t, "name DESC", DBOrdering{Field: "name"}.String())
}

func TestScanJSON(t *testing.T) {
	var dst map[string]int
	require.NoError(t, ScanJSON([]byte(`{"a":1}`), &dst))
	assert.Equal(t, map[string]int{"a": 1}, dst)

	require.NoError(t, ScanJSON(`{"b":2}`, &dst))
	assert.Equal(t, 2, dst["b"])

	assert.NoError(t, ScanJSON(nil, &dst))
	assert.Error(t, ScanJSON(42, &dst))
}

func TestIsNotFound(t *testing.T) {
	errThing := NewNotFoundError("thing")
	assert.True(t, IsNotFound(errThing))
	assert.True(t, IsNotFound(errors.Wrap(errThing, "getting thing")))
	assert.False(t, IsNotFound(errors.New("thing not found")))
	assert.Equal(t, "thing not found", errThing.Error())
}

type thing struct {
	Model
	Name string
}

type thingRepo struct {
	rows map[string]thing
}

func (r *thingRepo) Create(_ context.Context, obj thing) (thing, error) {
	r.rows[obj.ID] = obj
	return obj, nil
}

func (r *thingRepo) Update(_ context.Context, obj thing) (thing, error) {
	if _, ok := r.rows[obj.ID]; !ok {
		return thing{}, NewNotFoundError("thing")
	}
	r.rows[obj.ID] = obj
	return obj, nil
}

func (r *thingRepo) Get(_ context.Context, id string) (thing, error) {
	obj, ok := r.rows[id]
	if !ok {
		return thing{}, NewNotFoundError("thing")
	}
	return obj, nil
}

func (r *thingRepo) Query(context.Context, interface{}, []DBOrdering) ([]thing, error) {
	return nil, nil
}

func (r *thingRepo) Delete(_ context.Context, ids ...string) (int, error) {
	return 0, nil
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	repo := &thingRepo{rows: make(map[string]thing)}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	created, isNew, err := Save[thing, *thing, interface{}](ctx, repo, "", func(obj *thing) error {
		obj.Name = "first"
		return nil
	})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.True(t, IsValidID(created.ID))
	assert.Equal(t, now, created.CreatedAt)
	assert.Equal(t, now, created.UpdatedAt)

	later := now.Add(time.Hour)
	NowFunc = func() time.Time { return later }
	updated, isNew, err := Save[thing, *thing, interface{}](ctx, repo, created.ID, func(obj *thing) error {
		obj.Name = "second"
		return nil
	})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "second", updated.Name)
	assert.Equal(t, now, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	_, _, err = Save[thing, *thing, interface{}](ctx, repo, NewID(), func(obj *thing) error { return nil })
	assert.True(t, IsNotFound(err))
	assert.Len(t, repo.rows, 1)
}
