package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// FieldError is one violated rule, named by the JSON field it belongs to.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e *FieldError) Error() string {
	return e.Field + " " + message(e.Tag, e.Param)
}

// Struct validates s and returns every violation combined with multierr, or
// nil. Use multierr.Errors to get them back one by one.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var combined error
	for _, fe := range fieldErrs {
		combined = multierr.Append(combined, &FieldError{
			Field: fieldPath(fe),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return combined
}

// Fields lists the fields named by err, in order, with duplicates removed.
func Fields(err error) []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if !errors.As(e, &fe) || seen[fe.Field] {
			continue
		}
		seen[fe.Field] = true
		out = append(out, fe.Field)
	}
	return out
}

// Message joins the violations of err into the single line shown to users.
func Message(err error) string {
	errs := multierr.Errors(err)
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// fieldPath drops the top-level struct name from the namespace, so nested
// fields read "delivery_address.city" and slices "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		return fmt.Sprintf("must be at most %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "len":
		return fmt.Sprintf("must be %s characters", param)
	case "numeric":
		return "must contain digits only"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", param)
	case "latitude", "longitude":
		return "must be a valid coordinate"
	}
	return "is invalid"
}
