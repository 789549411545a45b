package validation

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"clientDirectory/models"
)

var (
	// Same looseness as the legacy signup form: something@something.tld
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9 ()\-.]{3,20}$`)
	// Login names: letters, digits and a few separators, never markup.
	usernameRe = regexp.MustCompile(`^[\p{L}\p{N}._'@+\-]+$`)
)

// Validator checks request payloads and strips markup from free-text fields.
type Validator struct {
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

// New returns a Validator with the custom tags registered: email_loose, role, phone,
// username and nomarkup.
func New() *Validator {
	out := &Validator{sanitizer: bluemonday.StrictPolicy()}
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names rather than Go names.
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

	_ = v.RegisterValidation("email_loose", func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.ValidRole(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	// nomarkup accepts text that sanitizing would leave unchanged apart from trimming.
	_ = v.RegisterValidation("nomarkup", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return out.Sanitize(s) == strings.TrimSpace(s)
	})

	out.validate = v
	return out
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Errors is the error returned by Struct when fields fail validation.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e[0].Message)
}

// Struct validates s by its validate tags.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: message(fe)})
	}
	return out
}

// Sanitize trims s and removes any HTML. The result is plain text: entities the
// policy emits are decoded again, so "AT&T" stays "AT&T".
func (v *Validator) Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(v.sanitizer.Sanitize(strings.TrimSpace(s))))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "email_loose":
		return fe.Field() + " must be a valid email address"
	case "role":
		return fmt.Sprintf("%s must be one of %s, %s", fe.Field(), models.RoleAdmin, models.RoleUser)
	case "phone":
		return fe.Field() + " must be a valid phone number"
	case "username":
		return fe.Field() + " may contain only letters, digits and . _ ' @ + -"
	case "nomarkup":
		return fe.Field() + " must not contain HTML"
	case "alphanum":
		return fe.Field() + " must contain only letters and digits"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
