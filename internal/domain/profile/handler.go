package profile

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/patients/internal/platform/validation"
)

type Handler struct {
	schema *Schema
}

func NewHandler(schema *Schema) *Handler {
	return &Handler{schema: schema}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/profile/validate", h.ValidateProfile)
}

// ValidateProfile echoes the normalized profile, or every violated
// constraint with 422.
func (h *Handler) ValidateProfile(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		if verr := validation.FromDecodeError(err); verr != nil {
			return c.JSON(http.StatusUnprocessableEntity, verr)
		}
		return err
	}
	normalized, err := h.schema.Validate(p)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, verr)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, normalized)
}
