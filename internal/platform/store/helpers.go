package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	perr "printprof/internal/platform/errors"
)

// queryOne runs sql and maps exactly one row through scan. Zero rows yields
// perr.ErrNotFound, more than one is an error.
func queryOne[T any](ctx context.Context, q Querier, scan func(Rows) (T, error), sql string, args ...any) (T, error) {
	var zero T
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, err
		}
		return zero, perr.ErrNotFound
	}
	item, err := scan(rows)
	if err != nil {
		return zero, err
	}
	if rows.Next() {
		return zero, fmt.Errorf("expected 1 row, got more")
	}
	return item, rows.Err()
}

// queryAll runs sql and maps every row through scan
func queryAll[T any](ctx context.Context, q Querier, scan func(Rows) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Scalar queries the first row, first column into T
func Scalar[T any](ctx context.Context, q Querier, sql string, args ...any) (T, error) {
	var zero T
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, err
		}
		return zero, perr.ErrNotFound
	}
	var v T
	if err := rows.Scan(&v); err != nil {
		return zero, err
	}
	return v, rows.Err()
}

// One maps a single row into T with a caller-supplied scanner
func One[T any](ctx context.Context, q Querier, scan func(Rows) (T, error), sql string, args ...any) (T, error) {
	return queryOne(ctx, q, scan, sql, args...)
}

// Many maps all rows into []T with a caller-supplied scanner
func Many[T any](ctx context.Context, q Querier, scan func(Rows) (T, error), sql string, args ...any) ([]T, error) {
	return queryAll(ctx, q, scan, sql, args...)
}

// Map returns a single row keyed by column name
func Map(ctx context.Context, q Querier, sql string, args ...any) (map[string]any, error) {
	return queryOne(ctx, q, scanMap, sql, args...)
}

// Maps returns all rows keyed by column name
func Maps(ctx context.Context, q Querier, sql string, args ...any) ([]map[string]any, error) {
	return queryAll(ctx, q, scanMap, sql, args...)
}

// StructByName maps one row into T by matching columns against `db` tags or
// lowercased field names
func StructByName[T any](ctx context.Context, q Querier, sql string, args ...any) (T, error) {
	return queryOne(ctx, q, scanStructByName[T], sql, args...)
}

// StructsByName maps all rows into []T by matching columns against `db` tags
// or lowercased field names
func StructsByName[T any](ctx context.Context, q Querier, sql string, args ...any) ([]T, error) {
	return queryAll(ctx, q, scanStructByName[T], sql, args...)
}

func scanMap(rows Rows) (map[string]any, error) {
	cols := rows.Columns()
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	m := make(map[string]any, len(cols))
	for i, c := range cols {
		m[c] = deref(vals[i])
	}
	return m, nil
}

// deref flattens driver pointer types so callers see plain values
func deref(v any) any {
	switch x := v.(type) {
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}

func scanStructByName[T any](rows Rows) (T, error) {
	var zero T
	m, err := scanMap(rows)
	if err != nil {
		return zero, err
	}

	rt := reflect.TypeOf((*T)(nil)).Elem()
	rv := reflect.New(rt).Elem()
	byName := indexStructFields(rt)

	for name, val := range m {
		if idx, ok := byName[strings.ToLower(name)]; ok {
			assign(rv.Field(idx), val)
		}
	}
	return rv.Interface().(T), nil
}

func indexStructFields(t reflect.Type) map[string]int {
	out := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		key := f.Tag.Get("db")
		if key == "" || key == "-" {
			key = f.Name
		}
		out[strings.ToLower(key)] = i
	}
	return out
}

// assign sets dst from src, converting where Go allows it. Unknown pairings
// leave dst at its zero value.
func assign(dst reflect.Value, src any) {
	if !dst.CanSet() {
		return
	}
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}
	sv := reflect.ValueOf(src)

	switch {
	case sv.Type().AssignableTo(dst.Type()):
		dst.Set(sv)
	case sv.Type().ConvertibleTo(dst.Type()):
		dst.Set(sv.Convert(dst.Type()))
	default:
		if b, ok := src.([]byte); ok && dst.Kind() == reflect.String {
			dst.SetString(string(b))
			return
		}
		if s, ok := src.(string); ok && dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8 {
			dst.SetBytes([]byte(s))
		}
	}
}
