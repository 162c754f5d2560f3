package dummydb

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

var defaultOrdering = []core.DBOrdering{{Field: "created_at"}}

type limiter interface {
	QueryLimit() int
}

// table is an in-memory, thread-safe table of T rows keyed by primary key.
type table[T core.Record, F any] struct {
	sync.RWMutex
	rows     map[string]T
	order    []string // insertion order
	notFound error
	match    func(row T, filter F) bool
}

func newTable[T core.Record, F any](notFound error, match func(T, F) bool) *table[T, F] {
	return &table[T, F]{rows: make(map[string]T), notFound: notFound, match: match}
}

func (t *table[T, F]) Create(_ context.Context, obj T) (T, error) {
	t.Lock()
	defer t.Unlock()

	pk := obj.PK()
	if _, ok := t.rows[pk]; !ok {
		t.order = append(t.order, pk)
	}
	t.rows[pk] = obj
	return obj, nil
}

func (t *table[T, F]) Update(_ context.Context, obj T) (T, error) {
	t.Lock()
	defer t.Unlock()

	if _, ok := t.rows[obj.PK()]; !ok {
		var zero T
		return zero, t.notFound
	}
	t.rows[obj.PK()] = obj
	return obj, nil
}

func (t *table[T, F]) Get(_ context.Context, id string) (T, error) {
	t.RLock()
	defer t.RUnlock()

	if obj, ok := t.rows[id]; ok {
		return obj, nil
	}
	var zero T
	return zero, t.notFound
}

// all returns the rows in insertion order. Callers must hold the lock.
func (t *table[T, F]) all() []T {
	rows := make([]T, 0, len(t.rows))
	for _, pk := range t.order {
		if obj, ok := t.rows[pk]; ok {
			rows = append(rows, obj)
		}
	}
	return rows
}

func (t *table[T, F]) Query(_ context.Context, filter F, ordering []core.DBOrdering) ([]T, error) {
	t.RLock()
	rows := t.all()
	t.RUnlock()

	if t.match != nil {
		filtered := rows[:0]
		for _, row := range rows {
			if t.match(row, filter) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	sortRows(rows, ordering)

	if l, ok := interface{}(filter).(limiter); ok {
		if limit := l.QueryLimit(); limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
	}
	return rows, nil
}

func (t *table[T, F]) Delete(_ context.Context, ids ...string) (int, error) {
	t.Lock()
	defer t.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := t.rows[id]; ok {
			delete(t.rows, id)
			deleted++
		}
	}
	if deleted > 0 {
		order := t.order[:0]
		for _, pk := range t.order {
			if _, ok := t.rows[pk]; ok {
				order = append(order, pk)
			}
		}
		t.order = order
	}
	return deleted, nil
}

// update applies fn to the row with id while holding the write lock.
func (t *table[T, F]) update(id string, fn func(obj *T)) (T, error) {
	t.Lock()
	defer t.Unlock()

	obj, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, t.notFound
	}
	fn(&obj)
	t.rows[id] = obj
	return obj, nil
}

// find returns the first row (in insertion order) for which fn is true.
func (t *table[T, F]) find(fn func(obj T) bool) (T, bool) {
	t.RLock()
	defer t.RUnlock()

	for _, obj := range t.all() {
		if fn(obj) {
			return obj, true
		}
	}
	var zero T
	return zero, false
}

// fieldIndexes maps the db tags of a struct type (and of its embedded structs) to field indexes.
var fieldIndexes sync.Map // {reflect.Type: map[string][]int}

func dbFields(typ reflect.Type) map[string][]int {
	if cached, ok := fieldIndexes.Load(typ); ok {
		return cached.(map[string][]int)
	}
	fields := make(map[string][]int)
	var walk func(t reflect.Type, index []int)
	walk = func(t reflect.Type, index []int) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			idx := append(append([]int{}, index...), i)
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				walk(f.Type, idx)
				continue
			}
			if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
				fields[tag] = idx
			}
		}
	}
	walk(typ, nil)
	fieldIndexes.Store(typ, fields)
	return fields
}

// sortRows sorts rows by their db columns. Unknown columns are ignored.
func sortRows[T any](rows []T, ordering []core.DBOrdering) {
	if len(rows) < 2 {
		return
	}
	fields := dbFields(reflect.TypeOf(rows[0]))
	var valid []core.DBOrdering
	for _, ord := range ordering {
		if _, ok := fields[strings.ToLower(ord.Field)]; ok {
			valid = append(valid, core.DBOrdering{Field: strings.ToLower(ord.Field), Ascending: ord.Ascending})
		}
	}
	if len(valid) == 0 {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		vi, vj := reflect.ValueOf(rows[i]), reflect.ValueOf(rows[j])
		for _, ord := range valid {
			idx := fields[ord.Field]
			c := compare(vi.FieldByIndex(idx), vj.FieldByIndex(idx))
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

var (
	timeType       = reflect.TypeOf(time.Time{})
	nullTimeType   = reflect.TypeOf(null.Time{})
	nullStringType = reflect.TypeOf(null.String{})
)

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareValid(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

// compare returns -1, 0 or 1. NULLs come first.
func compare(a, b reflect.Value) int {
	switch a.Type() {
	case timeType:
		return compareTimes(a.Interface().(time.Time), b.Interface().(time.Time))
	case nullTimeType:
		ta, tb := a.Interface().(null.Time), b.Interface().(null.Time)
		if !ta.Valid || !tb.Valid {
			return compareValid(ta.Valid, tb.Valid)
		}
		return compareTimes(ta.Time, tb.Time)
	case nullStringType:
		sa, sb := a.Interface().(null.String), b.Interface().(null.String)
		if !sa.Valid || !sb.Valid {
			return compareValid(sa.Valid, sb.Valid)
		}
		return strings.Compare(strings.ToLower(sa.String), strings.ToLower(sb.String))
	}

	switch a.Kind() {
	case reflect.String:
		return strings.Compare(strings.ToLower(a.String()), strings.ToLower(b.String()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch {
		case a.Int() < b.Int():
			return -1
		case a.Int() > b.Int():
			return 1
		}
	case reflect.Float32, reflect.Float64:
		switch {
		case a.Float() < b.Float():
			return -1
		case a.Float() > b.Float():
			return 1
		}
	case reflect.Bool:
		return compareValid(a.Bool(), b.Bool())
	}
	return 0
}

// helpers shared by the match functions

func searchMatch(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	for _, f := range fields {
		if core.ContainsFold(f, search) {
			return true
		}
	}
	return false
}

func tagMatch(tag string, tags []string) bool {
	return tag == "" || core.HasTag(tags, tag)
}

func eqMatch(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

func boolMatch(want *bool, got bool) bool {
	return want == nil || *want == got
}
