// Package validation checks request DTOs with go-playground/validator and reports
// failures as a map of JSON field names to readable messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// LocalDateTimeLayout is the wall-clock format accepted for appointment times.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

var (
	validate   = newValidator()
	phoneRegex = regexp.MustCompile(`^[0-9]{10,11}$`)
	hhmmRegex  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

var messages = map[string]string{
	"required":      "The field '%s' is required.",
	"required_with": "The field '%s' is required when '%s' is present.",
	"email":         "The field '%s' must be a valid email address.",
	"min":           "The field '%s' must be at least %s.",
	"max":           "The field '%s' must be at most %s.",
	"gte":           "The field '%s' must be greater than or equal to %s.",
	"lte":           "The field '%s' must be less than or equal to %s.",
	"oneof":         "The field '%s' must be one of [%s].",
	"phone":         "The field '%s' must contain 10 or 11 digits.",
	"hhmm":          "The field '%s' must be a time in HH:MM format.",
	"datetime":      "The field '%s' must match the layout %s.",
	"localdatetime": "The field '%s' must be a date-time in YYYY-MM-DDTHH:MM:SS format.",
	"dive":          "The field '%s' contains an invalid entry.",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
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
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("localdatetime", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(LocalDateTimeLayout, fl.Field().String())
		return err == nil
	})
	return v
}

// Struct validates s and returns nil when it is valid.
func Struct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		field := fieldPath(e.Namespace())
		out[field] = message(field, e)
	}
	return out
}

// fieldPath drops the root struct name from a namespace such as "CreatePatientRequest.guardian.phone".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(field string, e validator.FieldError) string {
	msg, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("The field '%s' is invalid (%s).", field, e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, field, e.Param())
	}
	return fmt.Sprintf(msg, field)
}
