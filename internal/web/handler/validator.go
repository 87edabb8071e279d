package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

type (
	// ErrorResponse describes one failed validation.
	ErrorResponse struct {
		FailedField string `json:"field"`
		Tag         string `json:"tag"`
		Value       any    `json:"value,omitempty"`
	}

	// XValidator validates request bodies with struct tags.
	XValidator struct {
		validate *validator.Validate
	}
)

// NewValidator returns a validator for request bodies.
func NewValidator() XValidator {
	return XValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate performs validation on the provided data and returns the failed fields.
func (v XValidator) Validate(data any) []ErrorResponse {
	var validationErrors []ErrorResponse

	err := v.validate.Struct(data)

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	for _, e := range errs {
		validationErrors = append(validationErrors, ErrorResponse{
			FailedField: e.Field(),
			Tag:         e.Tag(),
			Value:       e.Value(),
		})
	}

	return validationErrors
}
