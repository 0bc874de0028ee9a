package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "sigil/pkg/domain-errors"
	s "sigil/pkg/string"
)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("hexaddr", func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		if len(val) != 42 || !strings.HasPrefix(val, "0x") {
			return false
		}
		for _, r := range val[2:] {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
				return false
			}
		}
		return true
	})
	return v
}

// Validate validates a struct using the default validator and returns a domain error
func Validate(req any) error {
	if err := defaultValidator.Struct(req); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

// ErrorMessage converts a validator error into a human-readable message
func ErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "invalid request body"
	}

	fe := validationErrs[0]
	fieldName := fe.Field()
	if fieldName == "" {
		fieldName = fe.StructField()
	}
	field := s.ToSnakeCase(fieldName)

	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "hexaddr":
		return fmt.Sprintf("%s must be a 0x-prefixed 20-byte hex address", field)
	case "hexadecimal":
		return fmt.Sprintf("%s must be hex encoded", field)
	default:
		if field == "" {
			return "invalid request body"
		}
		return fmt.Sprintf("%s is invalid", field)
	}
}
