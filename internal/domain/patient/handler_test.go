package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler(seed Document) (*Handler, *echo.Echo, *countingStore) {
	svc, store := newTestService(seed)
	return NewHandler(svc), echo.New(), store
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
}

func TestHandler_HelloAndAbout(t *testing.T) {
	h, e, _ := newTestHandler(nil)

	c, rec := newJSONContext(e, http.MethodGet, "/", "")
	if err := h.Hello(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var msg map[string]string
	decodeBody(t, rec, &msg)
	if msg["message"] != "patient management API" {
		t.Errorf("unexpected message %q", msg["message"])
	}

	c, rec = newJSONContext(e, http.MethodGet, "/about", "")
	if err := h.About(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e, _ := newTestHandler(nil)

	body := `{"id":"P010","name":"Kabir Rao","city":"Bengaluru","age":35,"gender":"male","height":1.78,"weight":72}`
	c, rec := newJSONContext(e, http.MethodPost, "/create", body)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	v, err := h.svc.GetPatient(c.Request().Context(), "P010")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Name != "KABIR RAO" {
		t.Errorf("expected KABIR RAO, got %s", v.Name)
	}
}

func TestHandler_CreatePatient_Duplicate(t *testing.T) {
	h, e, store := newTestHandler(Document{"P001": storedPatient()})

	body := `{"id":"P001","name":"Kabir Rao","city":"Bengaluru","age":35,"gender":"male","height":1.78,"weight":72}`
	c, rec := newJSONContext(e, http.MethodPost, "/create", body)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if store.saves != 0 {
		t.Errorf("expected no save, got %d", store.saves)
	}
}

func TestHandler_CreatePatient_ValidationListsEveryField(t *testing.T) {
	h, e, _ := newTestHandler(nil)

	body := `{"id":"P011","name":"Kabir Rao","city":"Bengaluru","age":0,"gender":"robot","height":1.78,"weight":-2}`
	c, rec := newJSONContext(e, http.MethodPost, "/create", body)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var out struct {
		Detail []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"detail"`
	}
	decodeBody(t, rec, &out)
	got := map[string]bool{}
	for _, d := range out.Detail {
		got[d.Field] = true
	}
	for _, f := range []string{"age", "gender", "weight"} {
		if !got[f] {
			t.Errorf("expected an issue for %s, got %+v", f, out.Detail)
		}
	}
}

func TestHandler_CreatePatient_WrongType(t *testing.T) {
	h, e, _ := newTestHandler(nil)

	c, rec := newJSONContext(e, http.MethodPost, "/create", `{"id":"P012","age":"thirty"}`)
	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, e, _ := newTestHandler(Document{"P002": storedPatient()})

	c, rec := newJSONContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("P002")

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]interface{}
	decodeBody(t, rec, &got)
	if got["bmi"] != 24.69 || got["verdict"] != VerdictNormal {
		t.Errorf("expected derived fields, got %v", got)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e, _ := newTestHandler(nil)

	c, rec := newJSONContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("P404")

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["detail"] != "Patient not found" {
		t.Errorf("unexpected detail %q", body["detail"])
	}
}

func TestHandler_View(t *testing.T) {
	h, e, _ := newTestHandler(seedDocument())

	c, rec := newJSONContext(e, http.MethodGet, "/view", "")
	if err := h.View(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var all map[string]map[string]interface{}
	decodeBody(t, rec, &all)
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all["P001"]["verdict"] != VerdictUnderweight {
		t.Errorf("expected Underweight for P001, got %v", all["P001"]["verdict"])
	}
}

func TestHandler_SortPatients(t *testing.T) {
	h, e, _ := newTestHandler(seedDocument())

	c, rec := newJSONContext(e, http.MethodGet, "/sort?sort_by=weight&order=desc", "")
	if err := h.SortPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sorted []map[string]interface{}
	decodeBody(t, rec, &sorted)
	if len(sorted) != 3 || sorted[0]["id"] != "P002" || sorted[2]["id"] != "P001" {
		t.Errorf("unexpected order %v", sorted)
	}
}

func TestHandler_SortPatients_DefaultsToAscending(t *testing.T) {
	h, e, _ := newTestHandler(seedDocument())

	c, rec := newJSONContext(e, http.MethodGet, "/sort?sort_by=bmi", "")
	if err := h.SortPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sorted []map[string]interface{}
	decodeBody(t, rec, &sorted)
	if len(sorted) != 3 || sorted[0]["id"] != "P001" {
		t.Errorf("unexpected order %v", sorted)
	}
}

func TestHandler_SortPatients_Invalid(t *testing.T) {
	h, e, _ := newTestHandler(seedDocument())

	for _, target := range []string{"/sort?sort_by=age", "/sort?sort_by=bmi&order=sideways", "/sort"} {
		c, rec := newJSONContext(e, http.MethodGet, target, "")
		if err := h.SortPatients(c); err != nil {
			t.Fatalf("%s: unexpected error: %v", target, err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, rec.Code)
		}
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, e, _ := newTestHandler(seedDocument())

	c, rec := newJSONContext(e, http.MethodGet, "/patients?limit=2", "")
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var page struct {
		Data    []map[string]interface{} `json:"data"`
		Total   int                      `json:"total"`
		HasMore bool                     `json:"has_more"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 3 || len(page.Data) != 2 || !page.HasMore {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestHandler_UpdatePatient(t *testing.T) {
	h, e, _ := newTestHandler(Document{"P002": storedPatient()})

	c, rec := newJSONContext(e, http.MethodPut, "/", `{"id":"HIJACK","city":"Jaipur"}`)
	c.SetParamNames("id")
	c.SetParamValues("P002")

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	all, _ := h.svc.ViewAll(c.Request().Context())
	if _, ok := all["HIJACK"]; ok {
		t.Error("body id must not re-key the record")
	}
	if all["P002"].City != "Jaipur" || all["P002"].Name != "RAVI KUMAR" {
		t.Errorf("unexpected record %+v", all["P002"])
	}
}

func TestHandler_UpdatePatient_NotFound(t *testing.T) {
	h, e, _ := newTestHandler(nil)

	c, rec := newJSONContext(e, http.MethodPut, "/", `{"city":"Jaipur"}`)
	c.SetParamNames("id")
	c.SetParamValues("P404")

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_UpdatePatient_Invalid(t *testing.T) {
	h, e, store := newTestHandler(Document{"P002": storedPatient()})

	c, rec := newJSONContext(e, http.MethodPut, "/", `{"height":0}`)
	c.SetParamNames("id")
	c.SetParamValues("P002")

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if store.saves != 0 {
		t.Errorf("expected no save, got %d", store.saves)
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	h, e, _ := newTestHandler(Document{"P002": storedPatient()})

	c, rec := newJSONContext(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("P002")

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = newJSONContext(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("P002")
	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// unreadableStore fails every load the way a corrupt document does.
type unreadableStore struct{}

func (unreadableStore) Load(context.Context) (Document, error) {
	return nil, fmt.Errorf("%w: parse document: unexpected end of JSON input", ErrStorageUnavailable)
}

func (unreadableStore) Save(context.Context, Document) error { return nil }

func TestHandler_StorageFailureIsReturnedForLogging(t *testing.T) {
	h := NewHandler(NewService(NewRepository(unreadableStore{}), newTestSchema(), zerolog.Nop()))
	e := echo.New()

	tests := []struct {
		name string
		call func(echo.Context) error
	}{
		{"view", h.View},
		{"get", func(c echo.Context) error {
			c.SetParamNames("id")
			c.SetParamValues("P001")
			return h.GetPatient(c)
		}},
		{"delete", func(c echo.Context) error {
			c.SetParamNames("id")
			c.SetParamValues("P001")
			return h.DeletePatient(c)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(e, http.MethodGet, "/", "")
			err := tt.call(c)

			var httpErr *echo.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected an HTTPError, got %v", err)
			}
			if httpErr.Code != http.StatusInternalServerError || httpErr.Message != "Patient storage unavailable" {
				t.Errorf("unexpected error %d %v", httpErr.Code, httpErr.Message)
			}
			if !errors.Is(httpErr.Internal, ErrStorageUnavailable) {
				t.Errorf("expected the cause to be kept, got %v", httpErr.Internal)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("expected nothing written by the handler, got %s", rec.Body.String())
			}
		})
	}
}
