package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages maps validation tags to the text shown next to a form field.
var Messages = map[string]string{
	"required": "This field is required",
	"email":    "Enter a valid email address",
	"datetime": "Invalid format",
	"eqfield":  "Does not match",
	"oneline":  "Must not contain line breaks",
}

// Validator checks structs tagged with `binding`, the same tag gin uses, and
// reports errors under the field's form name.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.SetTagName("binding")
	UseFormNames(v)
	RegisterRules(v)
	return &Validator{v: v}
}

// RegisterRules adds the custom tags used by the site's forms:
//
//	oneline  no CR or LF, for values that end up in mail headers
func RegisterRules(v *validator.Validate) {
	_ = v.RegisterValidation("oneline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})
}

// Struct validates obj and returns messages keyed by field, or nil.
func (v *Validator) Struct(obj interface{}) map[string]string {
	return FieldErrors(v.v.Struct(obj))
}

// UseFormNames makes v report fields by their `form` tag, falling back to
// the json tag and then the Go name.
func UseFormNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
}

// FieldErrors converts validation errors into messages keyed by field name.
// A nil error or one that is not a validation failure yields nil.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	if msg, ok := Messages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "oneof":
		return "Must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return "Must be at most " + fe.Param()
	}
	return "Invalid value"
}
