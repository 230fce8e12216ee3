// Package validation wraps go-playground/validator with the field messages
// and custom rules shared by the patient and profile schemas.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DomainMessage is reported when an email's domain is not allow-listed.
const DomainMessage = "Not a valid domain"

// Issue is one failed constraint.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error aggregates every failed constraint of one validation run.
type Error struct {
	Issues []Issue `json:"detail"`
}

// NewError builds an Error from the given issues.
func NewError(issues ...Issue) *Error {
	return &Error{Issues: issues}
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator validates structs tagged with `validate:"..."`. Besides the
// library's built-in rules it understands email_domain, which accepts an
// email only when the text after its last "@" is allow-listed.
type Validator struct {
	v       *validator.Validate
	domains map[string]bool
}

// New returns a Validator allowing the given email domains.
func New(allowedDomains []string) *Validator {
	domains := make(map[string]bool, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.TrimSpace(d)
		if d != "" {
			domains[d] = true
		}
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	val := &Validator{v: v, domains: domains}
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("email_domain", val.emailDomain)
	return val
}

// AllowsDomain reports whether email's domain is allow-listed.
func (val *Validator) AllowsDomain(email string) bool {
	domain := email[strings.LastIndex(email, "@")+1:]
	return val.domains[domain]
}

func (val *Validator) emailDomain(fl validator.FieldLevel) bool {
	return val.AllowsDomain(fl.Field().String())
}

// Struct validates s, returning an *Error that lists every failing field.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{Field: fieldPath(fe), Message: message(fe)})
	}
	return NewError(issues...)
}

// fieldPath drops the top-level struct name from the namespace, so nested
// errors read "contact_details[phone]" rather than "Profile.contact_details[phone]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must have at most %s items", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must have at least %s items", fe.Param())
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "email":
		return "value is not a valid email address"
	case "url":
		return "value is not a valid URL"
	case "email_domain":
		return DomainMessage
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}

// FromDecodeError turns a request body decoding failure into an *Error so
// that malformed payloads are reported like any other invalid input. It
// returns nil when err is not a JSON decoding failure.
func FromDecodeError(err error) *Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return NewError(Issue{
			Field:   field,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		})
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return NewError(Issue{
			Field:   "body",
			Message: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset),
		})
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return NewError(Issue{Field: "body", Message: "unexpected end of JSON input"})
	}
	return nil
}
