package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Identifiable is implemented by records that can be referenced by id.
type Identifiable interface {
	Identity() uuid.UUID
}

// Ref is a reference to a record that is either an id only or the resolved
// record. ID works the same in both cases.
type Ref[T Identifiable] struct {
	id       uuid.UUID
	resolved *T
}

// RefTo returns an unresolved reference.
func RefTo[T Identifiable](id uuid.UUID) Ref[T] {
	return Ref[T]{id: id}
}

// Resolved returns a reference holding the full record.
func Resolved[T Identifiable](v T) Ref[T] {
	return Ref[T]{id: v.Identity(), resolved: &v}
}

// ID returns the referenced id.
func (r Ref[T]) ID() uuid.UUID {
	if r.resolved != nil {
		return (*r.resolved).Identity()
	}
	return r.id
}

// Value returns the resolved record, if present.
func (r Ref[T]) Value() (T, bool) {
	if r.resolved == nil {
		var zero T
		return zero, false
	}
	return *r.resolved, true
}

// IsResolved reports whether the full record is loaded.
func (r Ref[T]) IsResolved() bool {
	return r.resolved != nil
}

// MarshalJSON writes the resolved record, or the bare id.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.resolved != nil {
		return json.Marshal(*r.resolved)
	}
	return json.Marshal(r.id)
}

// UnmarshalJSON accepts a bare id or a record object. Objects are decoded
// into T and kept as the resolved value.
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Ref[T]{id: id}
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Resolved(v)
	return nil
}
