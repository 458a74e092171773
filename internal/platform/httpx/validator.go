package httpx

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/telemed/telemed/internal/platform/auth"
)

var validationMessages = map[string]string{
	"required":  "is required",
	"min":       "must be at least %s",
	"max":       "must be at most %s",
	"gt":        "must be greater than %s",
	"gte":       "must be at least %s",
	"lte":       "must be at most %s",
	"oneof":     "must be one of %s",
	"uuid":      "must be a valid UUID",
	"user_type": "must be patient or doctor",
}

// Validator adapts validator/v10 to echo.Validator. Field names in errors
// are the json names.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("user_type", func(fl validator.FieldLevel) bool {
		return auth.ValidUserType(fl.Field().String())
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return &ValidationError{cause: err}
	}
	return nil
}

// ValidationError carries the first failing field as a readable message.
type ValidationError struct {
	cause error
}

func (e *ValidationError) Error() string {
	return FormatValidationError(e.cause)
}

func (e *ValidationError) Unwrap() error { return e.cause }

// FormatValidationError renders the first field error as "<field> <rule>".
func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	first := verrs[0]
	msg, ok := validationMessages[first.Tag()]
	if !ok {
		msg = "is invalid"
	}
	if strings.Contains(msg, "%s") {
		param := first.Param()
		if first.Tag() == "oneof" {
			param = strings.Join(strings.Fields(param), ", ")
		}
		msg = strings.Replace(msg, "%s", param, 1)
	}
	return first.Field() + " " + msg
}
