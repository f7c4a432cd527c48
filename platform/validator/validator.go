// Package validator wraps go-playground/validator with the rules shared by the
// CLI, the worker and the review API.
package validator

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// maxParcelIDLength bounds parcel.parcelidcnty as Cog stores it.
const maxParcelIDLength = 64

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the parcelid rule registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("parcelid", validParcelID)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// ParcelID reports whether id looks like a county parcel id: non-empty,
// bounded, with no whitespace or control characters.
func ParcelID(id string) bool {
	if id == "" || len(id) > maxParcelIDLength {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) < 0
}

func validParcelID(fl validator.FieldLevel) bool {
	return ParcelID(fl.Field().String())
}
