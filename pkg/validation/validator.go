package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

// printable accepts any text without control characters. Spaces, accents
// and punctuation are all legal in ids.
func printable(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) < 0
}

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	if err := validate.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return printable(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

// Struct validates v against its `validate` struct tags and returns the
// first violation in a user-friendly format.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Identifier applies the payload id rules to an id that arrives outside a
// document, such as a URL path segment.
func Identifier(id string) error {
	if err := validate.Var(id, "required,max=128,ident"); err != nil {
		return fmt.Errorf("id %q: %w", id, formatValidationError(err))
	}
	return nil
}

// jsonFieldName reports fields by their JSON names so errors match the
// document the user sent.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := trimRoot(e.Namespace())
		if field == "" {
			field = "value"
		}
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "ident":
			return fmt.Errorf("%s: must not contain control characters", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}

// trimRoot drops the top-level struct name from a validator namespace
// ("Payload.nodes[2].id" becomes "nodes[2].id").
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
