package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Items is an ordered list of opaque JSON values. The service never interprets an item.
type Items []json.RawMessage

// Normalize returns a non-nil list so that an absent list encodes as [].
func (i Items) Normalize() Items {
	if i == nil {
		return Items{}
	}
	return i
}

// ParseItems decodes a JSON array. null and empty input decode to an empty list.
func ParseItems(data []byte) (Items, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Items{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("items must be a JSON array: %w", err)
	}
	return Items(raw).Normalize(), nil
}

// MarshalJSON encodes nil as [] instead of null.
func (i Items) MarshalJSON() ([]byte, error) {
	if i == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]json.RawMessage(i))
}

// UnmarshalJSON accepts an array or null.
func (i *Items) UnmarshalJSON(data []byte) error {
	items, err := ParseItems(data)
	if err != nil {
		return err
	}
	*i = items
	return nil
}

// Value stores the list as JSON text.
func (i Items) Value() (driver.Value, error) {
	b, err := i.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the JSON text written by [Items.Value].
func (i *Items) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Items{}
		return nil
	case string:
		return i.UnmarshalJSON([]byte(v))
	case []byte:
		return i.UnmarshalJSON(v)
	default:
		return fmt.Errorf("cannot scan %T into Items", src)
	}
}

// Len returns the number of items.
func (i Items) Len() int {
	return len(i)
}
