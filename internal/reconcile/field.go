// Package reconcile compares the mailing addresses reported by the Gaze owner
// registry with the mailing hierarchy stored in Cog, and plans the rows needed
// to bring Cog in line without overwriting anything that already exists.
//
// The flow is Normalize -> CompareAll -> Resolve -> Apply. Everything up to
// Apply is pure; Apply talks to storage only through the Store interface and
// must run inside a single transaction owned by the caller.
package reconcile

import "strings"

// FieldState distinguishes why a value is or is not available.
type FieldState uint8

const (
	// StateAbsent means there is no row at this level (or the external source did not report the field).
	StateAbsent FieldState = iota
	// StateNull means the row exists but the column is NULL.
	StateNull
	// StatePresent means the value is known. It may be an empty string.
	StatePresent
)

func (s FieldState) String() string {
	switch s {
	case StateNull:
		return "null"
	case StatePresent:
		return "present"
	default:
		return "absent"
	}
}

// Field is a three-state scalar: absent, null, or a present value.
type Field struct {
	state FieldState
	value string
}

// Absent returns a field with no row behind it.
func Absent() Field { return Field{state: StateAbsent} }

// Null returns a field whose row exists but whose column is NULL.
func Null() Field { return Field{state: StateNull} }

// Value returns a present field.
func Value(v string) Field { return Field{state: StatePresent, value: v} }

// FromPtr maps a scanned nullable column: nil is Null, anything else is present.
// Only use it for columns of rows that are known to exist.
func FromPtr(v *string) Field {
	if v == nil {
		return Null()
	}
	return Value(*v)
}

// OptionalValue maps an optional external value: nil is Absent.
func OptionalValue(v *string) Field {
	if v == nil {
		return Absent()
	}
	return Value(*v)
}

// State reports the field state.
func (f Field) State() FieldState { return f.state }

// HasValue reports whether the field carries a value.
func (f Field) HasValue() bool { return f.state == StatePresent }

// String returns the value, or "" when there is none.
func (f Field) String() string { return f.value }

// Upper returns the upper-cased value.
func (f Field) Upper() string { return strings.ToUpper(f.value) }

// Ptr returns a pointer to the value, or nil when there is none.
func (f Field) Ptr() *string {
	if !f.HasValue() {
		return nil
	}
	v := f.value
	return &v
}

// describe renders the field for operator-facing conflict details.
func (f Field) describe() string {
	if f.HasValue() {
		return f.value
	}
	return "<" + f.state.String() + ">"
}
