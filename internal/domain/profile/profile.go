// Package profile holds the extended patient profile used to demonstrate
// schema validation: email and URL formats, an allow-listed email domain,
// bounded lists and name normalization.
package profile

import (
	"strings"

	"github.com/ehr/patients/internal/platform/validation"
)

// Profile is a patient's contact profile.
type Profile struct {
	Name           string            `json:"name" validate:"required,max=50"`
	Email          string            `json:"email" validate:"required,email,email_domain"`
	LinkedInURL    string            `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	Age            int               `json:"age" validate:"gt=0,lte=120"`
	Weight         float64           `json:"weight" validate:"gt=0"`
	Married        *bool             `json:"married,omitempty"`
	Allergies      []string          `json:"allergies,omitempty" validate:"omitempty,max=5"`
	ContactDetails map[string]string `json:"contact_details" validate:"required"`
}

type Schema struct {
	v *validation.Validator
}

func NewSchema(v *validation.Validator) *Schema {
	return &Schema{v: v}
}

// Validate checks every constraint of p at once and returns the normalized
// profile: the name upper-cased.
func (s *Schema) Validate(p Profile) (Profile, error) {
	if err := s.v.Struct(p); err != nil {
		return Profile{}, err
	}
	p.Name = strings.ToUpper(p.Name)
	return p, nil
}
