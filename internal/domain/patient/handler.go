package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/patients/internal/platform/validation"
	"github.com/ehr/patients/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/", h.Hello)
	g.GET("/about", h.About)
	g.GET("/view", h.View)
	g.GET("/patient/:id", h.GetPatient)
	g.GET("/sort", h.SortPatients)
	g.GET("/patients", h.ListPatients)
	g.POST("/create", h.CreatePatient)
	g.PUT("/edit/:id", h.UpdatePatient)
	g.DELETE("/delete/:id", h.DeletePatient)
}

type message struct {
	Message string `json:"message"`
}

func (h *Handler) Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, message{Message: "patient management API"})
}

func (h *Handler) About(c echo.Context) error {
	return c.JSON(http.StatusOK, message{Message: "A fully functional API to manage your patient records"})
}

func (h *Handler) View(c echo.Context) error {
	all, err := h.svc.ViewAll(c.Request().Context())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, all)
}

func (h *Handler) GetPatient(c echo.Context) error {
	v, err := h.svc.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) SortPatients(c echo.Context) error {
	order := c.QueryParam("order")
	if order == "" {
		order = "asc"
	}
	sorted, err := h.svc.SortPatients(c.Request().Context(), c.QueryParam("sort_by"), order)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, sorted)
}

func (h *Handler) ListPatients(c echo.Context) error {
	page, err := h.svc.ListPatients(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return bindError(c, err)
	}
	if _, err := h.svc.CreatePatient(c.Request().Context(), p); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, message{Message: "patient created successfully"})
}

// UpdatePatient applies a partial update. The id always comes from the
// path; an id in the body is ignored.
func (h *Handler) UpdatePatient(c echo.Context) error {
	var upd PatientUpdate
	if err := c.Bind(&upd); err != nil {
		return bindError(c, err)
	}
	if _, err := h.svc.UpdatePatient(c.Request().Context(), c.Param("id"), upd); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, message{Message: "patient updated successfully"})
}

func (h *Handler) DeletePatient(c echo.Context) error {
	if err := h.svc.DeletePatient(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, message{Message: "patient deleted successfully"})
}

type errorBody struct {
	Detail string `json:"detail"`
}

// mapError translates service errors to HTTP responses. Storage and
// unexpected failures are returned as errors so the error handler logs the
// cause; the client only sees a fixed message.
func mapError(c echo.Context, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, verr)
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Detail: "Patient not found"})
	case errors.Is(err, ErrConflict):
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "Patient already exists"})
	case errors.Is(err, ErrInvalidSort):
		return c.JSON(http.StatusNotFound, errorBody{Detail: err.Error()})
	case errors.Is(err, ErrStorageUnavailable):
		return echo.NewHTTPError(http.StatusInternalServerError, "Patient storage unavailable").SetInternal(err)
	default:
		return err
	}
}

// bindError reports undecodable bodies as validation failures and passes
// other binder errors (unsupported media type, oversized body) through.
func bindError(c echo.Context, err error) error {
	if verr := validation.FromDecodeError(err); verr != nil {
		return c.JSON(http.StatusUnprocessableEntity, verr)
	}
	return err
}
