// Package sqlxrepos implements the repositories on postgres with sqlx and squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	psql            = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	defaultOrdering = []core.DBOrdering{{Field: "created_at"}}
)

type limiter interface {
	QueryLimit() int
}

// column is a db-tagged field of a model.
type column struct {
	name  string
	index []int
}

var columnsCache sync.Map // {reflect.Type: []column}

// columnsOf lists the db columns of a struct type, walking embedded structs (core.Model).
func columnsOf(typ reflect.Type) []column {
	if cached, ok := columnsCache.Load(typ); ok {
		return cached.([]column)
	}
	var cols []column
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
				cols = append(cols, column{name: tag, index: idx})
			}
		}
	}
	walk(typ, nil)
	columnsCache.Store(typ, cols)
	return cols
}

// table maps T rows onto a postgres table. where turns a filter into WHERE conditions.
type table[T core.Record, F any] struct {
	db       *sqlx.DB
	name     string
	notFound error
	where    func(filter F) sq.And
}

func newTable[T core.Record, F any](db *sqlx.DB, name string, notFound error, where func(F) sq.And) *table[T, F] {
	return &table[T, F]{db: db, name: name, notFound: notFound, where: where}
}

func (t *table[T, F]) columns() []column {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func (t *table[T, F]) values(obj T) map[string]interface{} {
	v := reflect.ValueOf(obj)
	vals := make(map[string]interface{})
	for _, col := range t.columns() {
		vals[col.name] = v.FieldByIndex(col.index).Interface()
	}
	return vals
}

// get runs a single-row query; sql.ErrNoRows is reported as the table's not found error.
func (t *table[T, F]) get(ctx context.Context, query sq.Sqlizer, action string) (T, error) {
	var obj T
	q, args, err := query.ToSql()
	if err != nil {
		return obj, errors.Wrap(err, "building query")
	}
	if err = sqlx.GetContext(ctx, t.db, &obj, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return obj, t.notFound
		}
		return obj, errors.Wrapf(err, "%s %s", action, t.name)
	}
	return obj, nil
}

func (t *table[T, F]) Create(ctx context.Context, obj T) (T, error) {
	vals := t.values(obj)
	cols := make([]string, 0, len(vals))
	args := make([]interface{}, 0, len(vals))
	for _, col := range t.columns() {
		cols = append(cols, col.name)
		args = append(args, vals[col.name])
	}
	query := psql.Insert(t.name).Columns(cols...).Values(args...).Suffix("RETURNING *")
	return t.get(ctx, query, "inserting into")
}

func (t *table[T, F]) Update(ctx context.Context, obj T) (T, error) {
	if !isUUID(obj.PK()) {
		var zero T
		return zero, t.notFound
	}
	vals := t.values(obj)
	delete(vals, "id")
	delete(vals, "created_at")
	query := psql.Update(t.name).SetMap(vals).Where(sq.Eq{"id": obj.PK()}).Suffix("RETURNING *")
	return t.get(ctx, query, "updating")
}

func (t *table[T, F]) Get(ctx context.Context, id string) (T, error) {
	if !isUUID(id) {
		var zero T
		return zero, t.notFound
	}
	return t.get(ctx, psql.Select("*").From(t.name).Where(sq.Eq{"id": id}), "getting from")
}

// Query filters and orders the rows. Unknown ordering columns are ignored.
func (t *table[T, F]) Query(ctx context.Context, filter F, ordering []core.DBOrdering) ([]T, error) {
	query := psql.Select("*").From(t.name)
	if t.where != nil {
		if conds := t.where(filter); len(conds) > 0 {
			query = query.Where(conds)
		}
	}
	query = query.OrderBy(t.orderBy(ordering)...)
	if l, ok := interface{}(filter).(limiter); ok {
		if limit := l.QueryLimit(); limit > 0 {
			query = query.Limit(uint64(limit))
		}
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	rows := make([]T, 0)
	if err = sqlx.SelectContext(ctx, t.db, &rows, q, args...); err != nil {
		return nil, errors.Wrapf(err, "querying %s", t.name)
	}
	return rows, nil
}

func (t *table[T, F]) orderBy(ordering []core.DBOrdering) []string {
	known := make(map[string]bool)
	for _, col := range t.columns() {
		known[col.name] = true
	}
	var clauses []string
	for _, ord := range ordering {
		field := strings.ToLower(ord.Field)
		if known[field] {
			clauses = append(clauses, core.DBOrdering{Field: field, Ascending: ord.Ascending}.String())
		}
	}
	if len(clauses) == 0 {
		for _, ord := range defaultOrdering {
			clauses = append(clauses, ord.String())
		}
	}
	return clauses
}

func (t *table[T, F]) Delete(ctx context.Context, ids ...string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	q, args, err := psql.Delete(t.name).Where(sq.Eq{"id": valid}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := t.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "deleting from %s", t.name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrapf(err, "deleting from %s", t.name)
	}
	return int(n), nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// condition helpers shared by the where functions

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// search matches rows where any of cols contains term, case-insensitively. LIKE wildcards in term match literally.
func search(term string, cols ...string) sq.Sqlizer {
	if term == "" {
		return nil
	}
	like := "%" + likeEscaper.Replace(term) + "%"
	or := make(sq.Or, 0, len(cols))
	for _, col := range cols {
		or = append(or, sq.Expr(col+` ILIKE ? ESCAPE '\'`, like))
	}
	return or
}

// hasTag matches rows whose text[] column contains tag.
func hasTag(col, tag string) sq.Sqlizer {
	if tag == "" {
		return nil
	}
	return sq.Expr("? = ANY("+col+")", tag)
}

func eq(col, val string) sq.Sqlizer {
	if val == "" {
		return nil
	}
	return sq.Expr("lower("+col+") = lower(?::text)", val)
}

// eqID compares a uuid column; a malformed id matches nothing.
func eqID(col, id string) sq.Sqlizer {
	if id == "" {
		return nil
	}
	if !isUUID(id) {
		return sq.Expr("false")
	}
	return sq.Eq{col: id}
}

func isTrue(col string, want *bool) sq.Sqlizer {
	if want == nil {
		return nil
	}
	return sq.Eq{col: *want}
}

// and drops the nil conditions.
func and(conds ...sq.Sqlizer) sq.And {
	out := make(sq.And, 0, len(conds))
	for _, cond := range conds {
		if cond != nil {
			out = append(out, cond)
		}
	}
	return out
}
