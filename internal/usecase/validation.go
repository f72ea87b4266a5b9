package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const requiredFieldText = "this field is required"

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report errors under the JSON field names the forms use.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct returns per-field messages keyed by JSON name, plus an ErrInvalidInput
// wrapped error when anything failed.
func validateStruct(ctx context.Context, v *validator.Validate, payload any) (map[string]string, error) {
	err := v.StructCtx(ctx, payload)
	if err == nil {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := make(map[string]string, len(fieldErrs))
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fieldErrorText(fe)
		names = append(names, fe.Field())
	}
	return out, fmt.Errorf("%w: missing or invalid fields: %s", ErrInvalidInput, strings.Join(names, ", "))
}

func fieldErrorText(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return requiredFieldText
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
