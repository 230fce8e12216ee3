package patient

import (
	"net/http"

	"github.com/ehr/patients/internal/platform/openapi"
)

// RegisterDocs describes the patient routes on g.
func RegisterDocs(g *openapi.Generator) {
	g.AddSchema("Patient", Patient{})
	g.AddSchema("PatientUpdate", PatientUpdate{})
	g.AddSchema("PatientView", View{})
	g.AddSchema("Message", message{})

	notFound := "Patient not found"
	invalid := "Validation error"
	g.AddOperations(
		openapi.Operation{
			Method: http.MethodGet, Path: "/", Summary: "Service greeting", OperationID: "hello", Tag: "meta",
			Response: "Message", Responses: map[int]string{http.StatusOK: "Greeting"},
		},
		openapi.Operation{
			Method: http.MethodGet, Path: "/about", Summary: "Service description", OperationID: "about", Tag: "meta",
			Response: "Message", Responses: map[int]string{http.StatusOK: "Description"},
		},
		openapi.Operation{
			Method: http.MethodGet, Path: "/view", Summary: "All patients keyed by id", OperationID: "viewPatients", Tag: "patients",
			Responses: map[int]string{http.StatusOK: "Patients with bmi and verdict"},
		},
		openapi.Operation{
			Method: http.MethodGet, Path: "/patients", Summary: "Page through patients ordered by id", OperationID: "listPatients", Tag: "patients",
			Query: []openapi.Param{
				{Name: "limit", Type: "integer", Description: "Page size"},
				{Name: "offset", Type: "integer", Description: "Records to skip"},
			},
			Responses: map[int]string{http.StatusOK: "A page of patients"},
		},
		openapi.Operation{
			Method: http.MethodGet, Path: "/patient/:id", Summary: "Read one patient", OperationID: "getPatient", Tag: "patients",
			Response:  "PatientView",
			Responses: map[int]string{http.StatusOK: "Patient with bmi and verdict", http.StatusNotFound: notFound},
		},
		openapi.Operation{
			Method: http.MethodGet, Path: "/sort", Summary: "Patients ordered by a numeric field", OperationID: "sortPatients", Tag: "patients",
			Query: []openapi.Param{
				{Name: "sort_by", Type: "string", Enum: SortFields, Required: true, Description: "Sort on the basis of height, weight or bmi"},
				{Name: "order", Type: "string", Enum: SortOrders, Description: "Sort in asc or desc order"},
			},
			Responses: map[int]string{http.StatusOK: "Sorted patients", http.StatusNotFound: "Invalid field or order"},
		},
		openapi.Operation{
			Method: http.MethodPost, Path: "/create", Summary: "Create a patient", OperationID: "createPatient", Tag: "patients",
			RequestBody: "Patient", Response: "Message",
			Responses: map[int]string{
				http.StatusCreated:             "Created",
				http.StatusBadRequest:          "Patient already exists",
				http.StatusUnprocessableEntity: invalid,
			},
		},
		openapi.Operation{
			Method: http.MethodPut, Path: "/edit/:id", Summary: "Partially update a patient", OperationID: "updatePatient", Tag: "patients",
			RequestBody: "PatientUpdate", Response: "Message",
			Responses: map[int]string{
				http.StatusOK:                  "Updated",
				http.StatusNotFound:            notFound,
				http.StatusUnprocessableEntity: invalid,
			},
		},
		openapi.Operation{
			Method: http.MethodDelete, Path: "/delete/:id", Summary: "Delete a patient", OperationID: "deletePatient", Tag: "patients",
			Response:  "Message",
			Responses: map[int]string{http.StatusOK: "Deleted", http.StatusNotFound: notFound},
		},
	)
}
