package profile

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/patients/internal/platform/validation"
)

func newTestSchema() *Schema {
	return NewSchema(validation.New([]string{"hdfc.com", "icici.com"}))
}

func validProfile() Profile {
	married := true
	return Profile{
		Name:           "Gaurav",
		Email:          "gaurav@hdfc.com",
		LinkedInURL:    "http://linkedin.com/1322",
		Age:            22,
		Weight:         75.2,
		Married:        &married,
		Allergies:      []string{"dust", "pollen"},
		ContactDetails: map[string]string{"phone": "12344"},
	}
}

func issueFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %T (%v)", err, err)
	}
	out := make(map[string]string, len(verr.Issues))
	for _, is := range verr.Issues {
		out[is.Field] = is.Message
	}
	return out
}

func TestSchema_Validate_Normalizes(t *testing.T) {
	got, err := newTestSchema().Validate(validProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "GAURAV" {
		t.Errorf("expected GAURAV, got %s", got.Name)
	}
	if got.Email != "gaurav@hdfc.com" {
		t.Errorf("email must be unchanged, got %s", got.Email)
	}
}

func TestSchema_Validate_OptionalFieldsMayBeAbsent(t *testing.T) {
	p := validProfile()
	p.LinkedInURL = ""
	p.Married = nil
	p.Allergies = nil

	if _, err := newTestSchema().Validate(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSchema_Validate_Constraints(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Profile)
		field  string
		msg    string
	}{
		{"domain not allowed", func(p *Profile) { p.Email = "gaurav@gmail.com" }, "email", validation.DomainMessage},
		{"bad email", func(p *Profile) { p.Email = "gaurav" }, "email", "value is not a valid email address"},
		{"bad url", func(p *Profile) { p.LinkedInURL = "linkedin" }, "linkedin_url", "value is not a valid URL"},
		{"age zero", func(p *Profile) { p.Age = 0 }, "age", "must be greater than 0"},
		{"age over limit", func(p *Profile) { p.Age = 121 }, "age", "must be less than or equal to 120"},
		{"zero weight", func(p *Profile) { p.Weight = 0 }, "weight", "must be greater than 0"},
		{"too many allergies", func(p *Profile) { p.Allergies = []string{"a", "b", "c", "d", "e", "f"} }, "allergies", "must have at most 5 items"},
		{"no contact details", func(p *Profile) { p.ContactDetails = nil }, "contact_details", "field required"},
		{"long name", func(p *Profile) { p.Name = strings.Repeat("g", 51) }, "name", "must be at most 50 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)

			_, err := newTestSchema().Validate(p)
			got := issueFields(t, err)
			if len(got) != 1 {
				t.Fatalf("expected one issue, got %v", got)
			}
			if got[tt.field] != tt.msg {
				t.Errorf("%s: expected %q, got %q", tt.field, tt.msg, got[tt.field])
			}
		})
	}
}

func TestSchema_Validate_AgeBoundary(t *testing.T) {
	p := validProfile()
	p.Age = 120
	if _, err := newTestSchema().Validate(p); err != nil {
		t.Fatalf("age 120 should pass: %v", err)
	}
}

func TestHandler_ValidateProfile(t *testing.T) {
	e := echo.New()
	h := NewHandler(newTestSchema())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"name":"Gaurav","email":"gaurav@icici.com","age":22,"weight":75.2,"contact_details":{"phone":"12344"}}`, http.StatusOK},
		{"invalid domain", `{"name":"Gaurav","email":"gaurav@gmail.com","age":22,"weight":75.2,"contact_details":{"phone":"12344"}}`, http.StatusUnprocessableEntity},
		{"wrong type", `{"name":"Gaurav","age":"twenty"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/profile/validate", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := h.ValidateProfile(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}
