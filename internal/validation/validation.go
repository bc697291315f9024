// Package validation checks service inputs against struct tags.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/prn-tf/freshdeal/internal/domain"
)

// Validator wraps go-playground/validator and reports failures as
// domain.ErrValidation errors with client-facing messages.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that names fields by their xml tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("xml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// Registration only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("finite", isFinite)
	return &Validator{v: v}
}

// isFinite rejects NaN and the infinities, which pass every ordering tag.
func isFinite(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return true
	}
}

// Struct validates s. The returned error wraps domain.ErrValidation and its
// Message joins one sentence per failing field.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return domain.NewDomainError(domain.ErrValidation, strings.Join(msgs, "; "), "")
}

// Message returns the client-facing text of a validation error, or "" when
// err is not one.
func Message(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) && errors.Is(de.Err, domain.ErrValidation) {
		return de.Message
	}
	return ""
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "finite":
		return field + " must be a finite number"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", field, lowerFirst(fe.Param()))
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "excludesall":
		return field + " contains invalid characters"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// lowerFirst turns a Go field name used as a tag parameter into its wire name.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
