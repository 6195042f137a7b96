package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Partial-update fields validate their value; absent or null fields count as empty.
	validate.RegisterCustomTypeFunc(optionalValue,
		Optional[string]{}, Optional[int]{}, Optional[bool]{}, Optional[[]string]{})
}

func optionalValue(field reflect.Value) any {
	if o, ok := field.Interface().(optional); ok {
		return o.present()
	}
	return nil
}

// ValidateStruct validates s and returns a VALIDATION error keyed by JSON field name.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	details := make(map[string]any, len(validationErrors))
	for _, fieldError := range validationErrors {
		field := fieldError.Field()
		msgs, _ := details[field].([]string)
		details[field] = append(msgs, fieldErrorMessage(fieldError))
	}
	return apperrors.NewValidationError("validation failed", details)
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", field, param)
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", field, param)
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", field, param)
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", strings.TrimSuffix(field, "_confirmation"))
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "uuid":
		return fmt.Sprintf("The %s field must be a valid UUID.", field)
	case "gte":
		return fmt.Sprintf("The %s field must be greater than or equal to %s.", field, param)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
