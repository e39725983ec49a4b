package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Field is one normalized cell. The zero value is absent: a header that was
// not supplied, an empty cell, or a date that could not be parsed.
type Field struct {
	value   any
	present bool
}

// Present wraps a value. A nil value is still absent.
func Present(v any) Field {
	if v == nil {
		return Field{}
	}
	return Field{value: v, present: true}
}

// Absent returns the empty field.
func Absent() Field { return Field{} }

// IsPresent reports whether the field carries a value.
func (f Field) IsPresent() bool { return f.present }

// Value returns the raw value, or nil when absent.
func (f Field) Value() any { return f.value }

// String renders the value for display; absent fields render as "".
func (f Field) String() string {
	if !f.present {
		return ""
	}
	switch v := f.value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(f.value)
}

// MarshalJSON encodes absent fields as null.
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON decodes null as absent.
func (f *Field) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Present(v)
	return nil
}
