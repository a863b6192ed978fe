// Package validation validates request structs with validator/v10 and turns
// failures into domain errors with readable messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/booksapp/books-server/internal/domain"
	domainerrors "github.com/booksapp/books-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for the catalog.
func New() *Validator {
	v := validator.New()

	// Report form field names, falling back to json names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	_ = v.RegisterValidation("audience", func(fl validator.FieldLevel) bool {
		return domain.Audience(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("trimmed", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == strings.TrimSpace(s)
	})

	return &Validator{v: v}
}

// Validate checks s. The returned error is a domain validation error whose
// Message describes the first failing field and whose Details map every
// failing field to its message.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = friendlyMessage(fe)
	}

	first := fieldErrs[0]
	msg := fmt.Sprintf("%s %s.", label(first.Field()), friendlyMessage(first))
	return domainerrors.ValidationWithDetails(msg, details)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "audience":
		return "must be one of: " + strings.Join(domain.AudienceValues(), ", ")
	case "trimmed":
		return "must not start or end with spaces"
	case "datetime":
		return "must be a date like 1960-07-11"
	default:
		return "is invalid"
	}
}

// label turns a field name like publish_date into "Publish date".
func label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
