package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/pubqueue/errors"
)

// FieldError names a config key and what is wrong with it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// fieldErrors converts to an INVALID_INPUT AppError listing every field.
type fieldErrors []FieldError

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Field + ": " + e.Message
	}
	appErr := errors.Validation(strings.Join(parts, "; "))
	appErr.Details = map[string]any{"fields": []FieldError(fe)}
	return appErr
}

// Validator is a chainable builder for checks that struct tags cannot
// express, such as rules spanning several fields.
//
//	err := validation.New().
//	    Required("name", c.Name).
//	    Custom(c.AbortAfter <= c.Producers*c.Items, "bench.abort_after", "exceeds total items").
//	    Validate()
type Validator struct {
	errs fieldErrors
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failure for field.
func (v *Validator) AddError(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool { return len(v.errs) > 0 }

// Errors returns the recorded failures in check order.
func (v *Validator) Errors() []FieldError { return v.errs }

// Validate returns nil, or an INVALID_INPUT AppError whose Details["fields"]
// holds every FieldError.
func (v *Validator) Validate() error { return v.errs.err() }

// Custom records message for field unless ok.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Required rejects blank strings.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(strings.TrimSpace(value) != "", field, "is required")
}

// OptionalUUID accepts an empty value or a parseable UUID.
func (v *Validator) OptionalUUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	_, err := uuid.Parse(value)
	return v.Custom(err == nil, field, "must be a valid UUID")
}

// Between requires lo <= value <= hi.
func (v *Validator) Between(field string, value, lo, hi int) *Validator {
	return v.Custom(value >= lo && value <= hi, field, fmt.Sprintf("must be between %d and %d", lo, hi))
}

// AtLeast requires value >= lo.
func (v *Validator) AtLeast(field string, value, lo int) *Validator {
	return v.Custom(value >= lo, field, fmt.Sprintf("must be at least %d", lo))
}

// OneOf requires value to be one of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	return v.Custom(slices.Contains(allowed, value), field, "must be one of: "+strings.Join(allowed, ", "))
}
