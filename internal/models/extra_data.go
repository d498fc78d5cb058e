package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// ExtraData holds the free-form key/value fields of a state that have no
// dedicated column. It is stored as jsonb.
type ExtraData map[string]interface{}

// Scan implements sql.Scanner for reading jsonb.
// Drivers hand jsonb over either as []byte or as string.
func (e *ExtraData) Scan(value interface{}) error {
	if value == nil {
		*e = ExtraData{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan ExtraData: expected []byte or string, got %T", value)
	}

	data := ExtraData{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("failed to unmarshal extra data: %w", err)
		}
	}
	*e = data

	return nil
}

// Value implements driver.Valuer for writing jsonb.
func (e ExtraData) Value() (driver.Value, error) {
	if e == nil {
		return "{}", nil
	}

	raw, err := json.Marshal(map[string]interface{}(e))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extra data: %w", err)
	}
	return string(raw), nil
}

// GormDataType tells GORM which column type to create.
func (ExtraData) GormDataType() string {
	return "jsonb"
}

// Keys returns the extra data keys in sorted order.
func (e ExtraData) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
