// Package query evaluates filters and sort orders over in-memory record sets.
package query

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

type Mode int

const (
	// Exact matches the whole value, ignoring case.
	Exact Mode = iota
	// Partial matches a case-insensitive substring.
	Partial
)

func (m Mode) String() string {
	if m == Partial {
		return "partial"
	}
	return "exact"
}

// Condition is one tagged filter entry.
type Condition struct {
	Mode  Mode
	Value string
}

// Filter maps a field name to the condition it must satisfy. All conditions
// must hold for a record to be kept.
type Filter map[string]Condition

// Sort orders the result by Field. Unknown fields keep insertion order.
type Sort struct {
	Field      string
	Descending bool
}

// Field declares how a record attribute is matched and read.
type Field[T any] struct {
	Mode  Mode
	Value func(T) any
}

// Schema lists the searchable fields of an entity.
type Schema[T any] map[string]Field[T]

var ErrUnknownField = errors.New("unknown filter field")

// Filter builds a tagged filter from raw field values using each field's
// declared mode. Empty values are ignored.
func (s Schema[T]) Filter(values map[string]string) (Filter, error) {
	f := make(Filter, len(values))
	for name, v := range values {
		if v == "" {
			continue
		}
		field, ok := s[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		f[name] = Condition{Mode: field.Mode, Value: v}
	}
	return f, nil
}

// Apply returns the records matching filter, ordered by order when it names a
// known field. The input slice is never modified.
func Apply[T any](records []T, schema Schema[T], filter Filter, order *Sort) ([]T, error) {
	for name := range filter {
		if _, ok := schema[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}

	result := make([]T, 0, len(records))
	for _, rec := range records {
		if matches(rec, schema, filter) {
			result = append(result, rec)
		}
	}

	if order == nil || order.Field == "" {
		return result, nil
	}
	field, ok := schema[order.Field]
	if !ok {
		return result, nil
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := field.Value(result[i]), field.Value(result[j])
		if order.Descending {
			return compare(b, a) < 0
		}
		return compare(a, b) < 0
	})
	return result, nil
}

func matches[T any](rec T, schema Schema[T], filter Filter) bool {
	for name, cond := range filter {
		v := deref(schema[name].Value(rec))
		if v == nil {
			return false
		}
		text := asText(v)
		switch cond.Mode {
		case Partial:
			if !strings.Contains(strings.ToLower(text), strings.ToLower(cond.Value)) {
				return false
			}
		default:
			if !strings.EqualFold(text, cond.Value) {
				return false
			}
		}
	}
	return true
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func asText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// compare orders nil before everything else, then numbers, times and text.
func compare(a, b any) int {
	a, b = deref(a), deref(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if na, ok := number(a); ok {
		if nb, ok := number(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(strings.ToLower(asText(a)), strings.ToLower(asText(b)))
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
