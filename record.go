package reactgrid

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gnemet/reactgrid/reactive"
)

// Record is one row of grid data. Values may be plain or reactive cells;
// cells are read lazily through Unwrap.
type Record map[string]any

// Unwrap returns the current value of a reactive cell or a niladic getter,
// and v itself otherwise.
func Unwrap(v any) any {
	switch x := v.(type) {
	case reactive.Unwrapper:
		return x.Any()
	case func() any:
		return x()
	default:
		return v
	}
}

// Get returns the unwrapped value of field.
func (r Record) Get(field string) any {
	return Unwrap(r[field])
}

// Snapshot returns a copy of r with every reactive value unwrapped, suitable
// for encoding.
func (r Record) Snapshot() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = Unwrap(v)
	}
	return out
}

// Records converts plain maps into records without copying them.
func Records(rows []map[string]interface{}) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = Record(row)
	}
	return out
}

// isBlank reports the values that always sort last.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// isEmptyFilterValue reports filter values that disable their filter entry.
// Zero and false are real filter values here.
func isEmptyFilterValue(v any) bool {
	if isBlank(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// compareValues orders two non-blank values: numerically across all numeric
// kinds, then strings, bools and times, and finally by their printed form.
func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
