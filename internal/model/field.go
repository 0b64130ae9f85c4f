package model

import (
	"bytes"
	"encoding/json"
)

// Field is an optional value in a partial update. A field that was never
// set leaves the stored value untouched.
type Field[T any] struct {
	Value T
	Set   bool
	Null  bool
}

func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

func (f Field[T]) Or(current T) T {
	if !f.Set {
		return current
	}
	return f.Value
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		f.Value = zero
		f.Null = true
		return nil
	}
	f.Null = false
	return json.Unmarshal(b, &f.Value)
}
