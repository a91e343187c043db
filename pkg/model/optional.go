package model

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that distinguishes absent, null, and set values.
// Request structs use it for sparse patches: Set is false when the field was
// missing from the body, Null is true when it was an explicit JSON null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a set, non-null Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a set Optional holding an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// IsZero makes unset fields cooperate with the json omitzero tag option.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}
