// Package validation checks record shapes against their validate tags.
// Both document store backends call it when decoding.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

var validate = New()

// New returns a validator that reports fields by their JSON names
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(JSONTagName)
	return v
}

// JSONTagName names a struct field after its json tag
func JSONTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

// Struct validates v and returns the first failing field as a
// *shared.ValidationError.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return shared.NewValidationError(fieldPath(fe), Message(fe))
	}
	return shared.NewValidationError("", err.Error())
}

// fieldPath drops the struct name prefix, keeping nested paths such as items[0].quantity
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Message returns a human-readable message for a field error
func Message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "datetime":
		return "Must match the format " + e.Param()
	default:
		return "Invalid value"
	}
}
