package profile

import (
	"net/http"

	"github.com/ehr/patients/internal/platform/openapi"
)

func RegisterDocs(g *openapi.Generator) {
	g.AddSchema("Profile", Profile{})
	g.AddOperations(openapi.Operation{
		Method: http.MethodPost, Path: "/profile/validate", Summary: "Validate and normalize a patient profile",
		OperationID: "validateProfile", Tag: "profile",
		RequestBody: "Profile", Response: "Profile",
		Responses: map[int]string{http.StatusOK: "Normalized profile", http.StatusUnprocessableEntity: "Validation error"},
	})
}
