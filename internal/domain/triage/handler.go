package triage

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/triage", h.Assess)
}

// Assess runs the triage engine over the submitted symptoms and returns the
// classification without persisting anything.
func (h *Handler) Assess(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.Age < 0 || in.Age > 150 {
		return echo.NewHTTPError(http.StatusBadRequest, "age out of range")
	}
	if in.Vitals != nil && in.Vitals.SpO2 != nil && (*in.Vitals.SpO2 < 0 || *in.Vitals.SpO2 > 100) {
		return echo.NewHTTPError(http.StatusBadRequest, "spo2 out of range")
	}
	return c.JSON(http.StatusOK, Assess(in))
}
