package model

import (
	"bytes"
	"encoding/json"
)

// NullableString is an optional text field of a partial update. Set is false
// when the JSON key was absent; an explicit null decodes as Set with a nil
// Value and clears the field. Tag it omitzero so an unset value is not sent.
type NullableString struct {
	Set   bool
	Value *string
}

// SetString supplies s.
func SetString(s string) NullableString { return NullableString{Set: true, Value: &s} }

// ClearString supplies null.
func ClearString() NullableString { return NullableString{Set: true} }

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}
