package patient

import (
	"bytes"
	"encoding/json"
)

// Optional is a field of a partial update. The zero value is unset; a JSON
// null marks the field as set with Null true.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON is only invoked for keys present in the payload, which is
// what separates an absent field from one explicitly sent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON writes null for unset and null fields.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// apply overwrites *dst when the field was sent.
func (o Optional[T]) apply(dst *T) {
	if !o.Set {
		return
	}
	*dst = o.Value
}
