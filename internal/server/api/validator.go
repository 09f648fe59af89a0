package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo's Validator hook
// so handlers can call c.Validate on bound request DTOs.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates the validator used by the router.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// firstInvalidField returns the struct field name of the first validation
// failure, or "" when err is not a validator error. Struct fields are
// declared in the order the API contract checks them, so the first failure
// is the one the response must report.
func firstInvalidField(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ""
	}
	return verrs[0].StructField()
}
