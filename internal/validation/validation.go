// Package validation wraps go-playground/validator and turns its field
// errors into a single aggregated ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "usersvc/internal/errors"
)

var addressPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// bcrypt rejects secrets longer than this many bytes.
const bcryptMaxBytes = 72

// New returns a validator that reports fields by their JSON names and knows
// the "address" rule used for emails and the "bcryptlen" byte limit for
// passwords.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("address", func(fl validator.FieldLevel) bool {
		return addressPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= bcryptMaxBytes
	})
	return v
}

// Struct validates s and returns a *errors.ValidationError listing every
// violated rule, or nil.
func Struct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, message(fe))
	}
	return apperrors.NewValidationError(messages...)
}

func message(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "address", "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
	case "bcryptlen":
		return fmt.Sprintf("%s cannot exceed %d bytes", field, bcryptMaxBytes)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return field + " is invalid"
	}
}

// fieldPath drops the top-level struct name from the namespace, so a nested
// field reads "profile.phone".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// EchoValidator plugs the aggregated rules into echo's Context.Validate.
type EchoValidator struct {
	validate *validator.Validate
}

// NewEchoValidator returns an echo.Validator backed by New.
func NewEchoValidator() *EchoValidator {
	return &EchoValidator{validate: New()}
}

// Validate implements echo.Validator.
func (v *EchoValidator) Validate(i interface{}) error {
	return Struct(v.validate, i)
}
