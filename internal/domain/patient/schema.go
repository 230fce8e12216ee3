package patient

import (
	"strings"

	"github.com/ehr/patients/internal/platform/validation"
)

// Schema is the single definition of a valid patient. Create and the
// merge-then-revalidate update path both go through Patient.
type Schema struct {
	v *validation.Validator
}

// NewSchema returns a Schema backed by v.
func NewSchema(v *validation.Validator) *Schema {
	return &Schema{v: v}
}

// Patient validates p in full and returns its normalized form. All failing
// fields are reported together in a *ValidationError.
func (s *Schema) Patient(p Patient) (Patient, error) {
	if err := s.v.Struct(p); err != nil {
		return Patient{}, err
	}
	return Normalize(p), nil
}

// Normalize applies the field transforms of a canonical record.
func Normalize(p Patient) Patient {
	p.Name = strings.ToUpper(p.Name)
	return p
}
