// Package validation wraps go-playground/validator with the gateway's
// custom tags and error shape.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/logger"
	"motorhub/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Validator struct {
	validate *validator.Validate
	phones   *sanitizer.Phones
}

func New(phones *sanitizer.Phones, log *logger.Logger) *Validator {
	if phones == nil {
		phones = sanitizer.NewPhones(nil)
	}

	v := validator.New()
	v.RegisterTagNameFunc(jsonName)

	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phones.Valid(fl.Field().String())
	}); err != nil {
		log.Fatal("Failed to register 'phone' validator", "error", err)
	}

	return &Validator{validate: v, phones: phones}
}

// Struct validates s. Missing required fields come back together as
// MissingFields; any other failure as a VALIDATION_ERROR listing each field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperrors.Internal("Failed to validate input", err)
	}

	var missing []string
	var fields []FieldError
	for _, fe := range validationErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		fields = append(fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}

	if len(missing) > 0 {
		appErr := apperrors.MissingFields(missing)
		if len(fields) > 0 {
			appErr = appErr.WithDetails(map[string]any{"fields": fields})
		}
		return appErr
	}
	return apperrors.Validation("Some fields are not valid", map[string]any{"fields": fields})
}

func (v *Validator) Phones() *sanitizer.Phones {
	return v.phones
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is not valid", fe.Field())
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}
