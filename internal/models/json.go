// Package models provides data model definitions for the topic engine.
package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON is an opaque JSON document stored as TEXT. The zero value is stored
// as NULL and serialized as null.
type JSON []byte

// Value implements driver.Valuer for JSON.
func (j JSON) Value() (driver.Value, error) {
	if j.IsZero() {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner for JSON.
func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case string:
		*j = JSON(v)
	case []byte:
		*j = append(JSON(nil), v...)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}
	return nil
}

// MarshalJSON emits the document verbatim.
func (j JSON) MarshalJSON() ([]byte, error) {
	if j.IsZero() {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON keeps a copy of the raw document. A literal null becomes
// the zero value.
func (j *JSON) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*j = nil
		return nil
	}
	*j = append((*j)[:0], data...)
	return nil
}

// IsZero reports whether the document is absent.
func (j JSON) IsZero() bool {
	return len(bytes.TrimSpace(j)) == 0
}

// IsObject reports whether the document is a JSON object.
func (j JSON) IsObject() bool {
	trimmed := bytes.TrimSpace(j)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// Equal compares two documents semantically, ignoring whitespace and key order.
func (j JSON) Equal(other JSON) bool {
	if j.IsZero() || other.IsZero() {
		return j.IsZero() == other.IsZero()
	}
	var a, b interface{}
	if json.Unmarshal(j, &a) != nil || json.Unmarshal(other, &b) != nil {
		return bytes.Equal(j, other)
	}
	ca, _ := json.Marshal(a)
	cb, _ := json.Marshal(b)
	return bytes.Equal(ca, cb)
}
