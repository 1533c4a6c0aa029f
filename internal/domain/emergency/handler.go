package emergency

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/zambuko/telehealth/internal/domain/dispatch"
	"github.com/zambuko/telehealth/internal/platform/auth"
	"github.com/zambuko/telehealth/pkg/geo"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Reporting an emergency is open to any authenticated role; anonymous
	// walk-in reports come through the patient app with no patient id.
	report := api.Group("", auth.RequireRole("patient", "doctor", "dispatch"))
	report.POST("/emergencies", h.Create)
	report.GET("/emergencies/catalog", h.Catalog)
	report.GET("/emergencies/:id", h.Get)

	ops := api.Group("", auth.RequireRole("dispatch"))
	ops.GET("/emergencies", h.ListActive)
	ops.POST("/emergencies/:id/assign", h.Assign)
	ops.POST("/emergencies/:id/respond", h.Respond)
	ops.POST("/emergencies/:id/complete", h.Complete)
	ops.POST("/emergencies/:id/resolve", h.Resolve)
	ops.POST("/emergencies/:id/cancel", h.Cancel)
}

type createRequest struct {
	PatientID     *uuid.UUID `json:"patient_id"`
	PatientName   string     `json:"patient_name"`
	Phone         string     `json:"phone"`
	EmergencyType string     `json:"emergency_type"`
	Description   string     `json:"description"`
	Location      *geo.Point `json:"location"`
	AutoAssign    bool       `json:"auto_assign"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.Create(c.Request().Context(), CreateInput{
		PatientID:     req.PatientID,
		PatientName:   req.PatientName,
		Phone:         req.Phone,
		EmergencyType: req.EmergencyType,
		Description:   req.Description,
		Location:      req.Location,
		AutoAssign:    req.AutoAssign,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) Catalog(c echo.Context) error {
	return c.JSON(http.StatusOK, Catalog)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListActive(c echo.Context) error {
	active, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if active == nil {
		active = []*Emergency{}
	}
	return c.JSON(http.StatusOK, active)
}

type unitRequest struct {
	UnitID uuid.UUID `json:"unit_id"`
}

func (h *Handler) Assign(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req unitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.Assign(c.Request().Context(), id, req.UnitID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Respond(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req unitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.Respond(c.Request().Context(), id, req.UnitID)
	if err != nil {
		return mapError(err)
	}
	// Responding to a vanished emergency acknowledges without content.
	if e == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Complete(c echo.Context) error {
	return h.transition(c, h.svc.Complete)
}

func (h *Handler) Resolve(c echo.Context) error {
	return h.transition(c, h.svc.Resolve)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

func (h *Handler) transition(c echo.Context, op func(ctx context.Context, id uuid.UUID) (*Emergency, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := op(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "emergency not found")
	case errors.Is(err, dispatch.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "dispatch unit not found")
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
