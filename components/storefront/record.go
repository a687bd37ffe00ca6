package storefront

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is an opaque backend entity. Only the identifier field and the
// boolean flags used for optimistic toggles are interpreted.
type Record map[string]any

// ID returns the identifier stored under field normalized to a string.
func (r Record) ID(field string) (string, bool) {
	if r == nil {
		return "", false
	}
	value, ok := r[field]
	if !ok || value == nil {
		return "", false
	}
	id := stringify(value)
	return id, id != ""
}

// Bool reports the truthiness of a flag field. Missing fields are false.
func (r Record) Bool(field string) bool {
	switch v := r[field].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case json.Number:
		n, _ := v.Float64()
		return n != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

// String returns a display string for field, or "" when missing.
func (r Record) String(field string) string {
	value, ok := r[field]
	if !ok || value == nil {
		return ""
	}
	return stringify(value)
}

// Int returns an integer field, accepting numbers and numeric strings.
func (r Record) Int(field string) int {
	switch v := r[field].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		f, _ := v.Float64()
		return int(f)
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

// Clone returns a shallow copy so optimistic edits never alias caller maps.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for key, value := range r {
		out[key] = value
	}
	return out
}

// With returns a copy of the record with field set to value.
func (r Record) With(field string, value any) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	out[field] = value
	return out
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
