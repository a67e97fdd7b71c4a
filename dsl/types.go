package dsl

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/reoring/polyskema"
	"github.com/reoring/polyskema/i18n"
	js "github.com/reoring/polyskema/jsonschema"
)

// Type converts one field value in both directions. Failures are reported as
// polyskema.Issues at "/" and rebased by the enclosing object.
type Type interface {
	Load(ctx context.Context, v any) (any, error)
	Dump(ctx context.Context, v any) (any, error)
	JSONSchema() (*js.Schema, error)
}

func fail(code, key string, data map[string]string) error {
	return polyskema.Issues{polyskema.Issue{Path: "/", Code: code, Message: i18n.T(key, data), Offset: -1}}
}

func nullIssue() error { return fail(polyskema.CodeInvalidType, "null", nil) }

func i18nT(code string) string { return i18n.T(code, nil) }

// ---- string ----

// String accepts strings (and named string types on dump).
func String() Type { return stringType{} }

type stringType struct{}

func (stringType) Load(_ context.Context, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nullIssue()
	case string:
		return t, nil
	}
	return nil, fail(polyskema.CodeInvalidType, "not_string", nil)
}

func (stringType) Dump(_ context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return nil, fail(polyskema.CodeInvalidType, "not_string", nil)
}

func (stringType) JSONSchema() (*js.Schema, error) { return &js.Schema{Type: "string"}, nil }

// ---- int ----

// Int accepts integral numbers and numeric strings; values load as int64.
func Int() Type { return intType{} }

type intType struct{}

func (intType) Load(_ context.Context, v any) (any, error) {
	if v == nil {
		return nil, nullIssue()
	}
	if i, ok := toInt64(v); ok {
		return i, nil
	}
	return nil, fail(polyskema.CodeInvalidType, "not_integer", nil)
}

func (intType) Dump(_ context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if i, ok := toInt64(v); ok {
		return i, nil
	}
	return nil, fail(polyskema.CodeInvalidType, "not_integer", nil)
}

func (intType) JSONSchema() (*js.Schema, error) { return &js.Schema{Type: "integer"}, nil }

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		f, err := t.Float64()
		return floatToInt(f, err == nil)
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		return i, err == nil
	case bool:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		return int64(u), u <= math.MaxInt64
	case reflect.Float32, reflect.Float64:
		return floatToInt(rv.Float(), true)
	}
	return 0, false
}

func floatToInt(f float64, ok bool) (int64, bool) {
	if !ok || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// ---- float ----

// Float accepts any finite number or numeric string; values load as float64.
func Float() Type { return floatType{} }

type floatType struct{}

func (floatType) Load(_ context.Context, v any) (any, error) {
	if v == nil {
		return nil, nullIssue()
	}
	if f, ok := toFloat64(v); ok {
		return f, nil
	}
	return nil, fail(polyskema.CodeInvalidType, "not_number", nil)
}

func (floatType) Dump(_ context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if f, ok := toFloat64(v); ok {
		return f, nil
	}
	return nil, fail(polyskema.CodeInvalidType, "not_number", nil)
}

func (floatType) JSONSchema() (*js.Schema, error) { return &js.Schema{Type: "number"}, nil }

func toFloat64(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		f = x
	case bool:
		return 0, false
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		default:
			return 0, false
		}
	}
	return f, !math.IsInf(f, 0) && !math.IsNaN(f)
}

// ---- bool ----

// Bool accepts booleans and the strings understood by strconv.ParseBool.
func Bool() Type { return boolType{} }

type boolType struct{}

func (boolType) Load(_ context.Context, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nullIssue()
	case bool:
		return t, nil
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b, nil
		}
	}
	return nil, fail(polyskema.CodeInvalidType, "not_boolean", nil)
}

func (b boolType) Dump(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return b.Load(ctx, v)
}

func (boolType) JSONSchema() (*js.Schema, error) { return &js.Schema{Type: "boolean"}, nil }

// ---- time ----

// Time loads RFC3339 strings into time.Time and dumps time.Time as RFC3339
// (UTC, trailing zeros trimmed).
func Time() Type { return timeType{} }

type timeType struct{}

func (timeType) Load(_ context.Context, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nullIssue()
	case time.Time:
		return t, nil
	case string:
		if tm, err := parseRFC3339(t); err == nil {
			return tm, nil
		}
	}
	return nil, fail(polyskema.CodeInvalidFormat, "invalid_format", map[string]string{"format": "datetime"})
}

func (timeType) Dump(_ context.Context, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.UTC().Format(time.RFC3339Nano), nil
	case string:
		if tm, err := parseRFC3339(t); err == nil {
			return tm.UTC().Format(time.RFC3339Nano), nil
		}
	}
	return nil, fail(polyskema.CodeInvalidFormat, "invalid_format", map[string]string{"format": "datetime"})
}

func (timeType) JSONSchema() (*js.Schema, error) {
	return &js.Schema{Type: "string", Format: "date-time"}, nil
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

// ---- any / nullable / list ----

// Any passes values through untouched in both directions.
func Any() Type { return anyType{} }

type anyType struct{}

func (anyType) Load(_ context.Context, v any) (any, error) { return v, nil }
func (anyType) Dump(_ context.Context, v any) (any, error) { return v, nil }
func (anyType) JSONSchema() (*js.Schema, error)            { return &js.Schema{}, nil }

// Nullable lets nil through an otherwise non-null type.
func Nullable(t Type) Type { return nullable{inner: t} }

type nullable struct{ inner Type }

func (n nullable) Load(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return n.inner.Load(ctx, v)
}

func (n nullable) Dump(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return n.inner.Dump(ctx, v)
}

func (n nullable) JSONSchema() (*js.Schema, error) { return n.inner.JSONSchema() }

// List applies elem to every element of a slice.
func List(elem Type) Type { return listType{elem: elem} }

type listType struct{ elem Type }

func (l listType) Load(ctx context.Context, v any) (any, error) {
	return l.each(v, func(x any) (any, error) { return l.elem.Load(ctx, x) })
}

func (l listType) Dump(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return l.each(v, func(x any) (any, error) { return l.elem.Dump(ctx, x) })
}

func (l listType) each(v any, fn func(any) (any, error)) (any, error) {
	if v == nil {
		return nil, nullIssue()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fail(polyskema.CodeInvalidType, "not_list", nil)
	}
	out := make([]any, rv.Len())
	var iss polyskema.Issues
	for i := range out {
		x, err := fn(rv.Index(i).Interface())
		if err != nil {
			iss = append(iss, polyskema.IssuesFromErr("/", err).Rebase("/"+strconv.Itoa(i))...)
			continue
		}
		out[i] = x
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (l listType) JSONSchema() (*js.Schema, error) {
	items, err := l.elem.JSONSchema()
	if err != nil {
		return nil, err
	}
	return &js.Schema{Type: "array", Items: items}, nil
}

// ---- nested polymorphic ----

// OneOf embeds a dispatch schema as a field type, so a field may hold any of
// its variants.
func OneOf(s *polyskema.OneOf) Type { return oneOfType{s: s} }

type oneOfType struct{ s *polyskema.OneOf }

func (o oneOfType) Load(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nullIssue()
	}
	return o.s.LoadOne(ctx, v, polyskema.LoadOpt{})
}

func (o oneOfType) Dump(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return o.s.DumpOne(ctx, v)
}

func (o oneOfType) JSONSchema() (*js.Schema, error) { return o.s.JSONSchema() }
