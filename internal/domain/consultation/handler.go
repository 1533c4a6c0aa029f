package consultation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/zambuko/telehealth/internal/domain/triage"
	"github.com/zambuko/telehealth/internal/platform/auth"
	"github.com/zambuko/telehealth/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("", auth.RequireRole("patient"))
	patient.POST("/consultations", h.Create)
	patient.POST("/consultations/:id/cancel", h.Cancel)
	patient.POST("/consultations/:id/pay", h.MarkPaid)
	patient.GET("/consultations/by-patient/:patientId", h.ListByPatient)

	doctor := api.Group("", auth.RequireRole("doctor"))
	doctor.POST("/consultations/:id/accept", h.Accept)
	doctor.POST("/consultations/:id/start", h.Start)
	doctor.POST("/consultations/:id/end", h.End)
	doctor.POST("/consultations/:id/decline", h.Decline)
	doctor.GET("/consultations/by-doctor/:doctorId", h.ListByDoctor)
	doctor.GET("/consultations/by-doctor/:doctorId/pending", h.ListPendingByDoctor)

	read := api.Group("", auth.RequireRole("patient", "doctor"))
	read.GET("/consultations/:id", h.Get)
}

type createRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	Symptoms    []string  `json:"symptoms"`
	TriageLevel string    `json:"triage_level"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.Create(c.Request().Context(), req.PatientID, req.DoctorID,
		req.Symptoms, triage.ParseLevel(req.TriageLevel))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, cons)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cons, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

type doctorActionRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func (h *Handler) Accept(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req doctorActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.Accept(c.Request().Context(), id, req.DoctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) Start(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cons, err := h.svc.Start(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

type endRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) End(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req endRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.End(c.Request().Context(), id, req.Notes)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cons, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) Decline(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req doctorActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.Decline(c.Request().Context(), id, req.DoctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) MarkPaid(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cons, err := h.svc.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), patientID)
	return h.respondList(c, items, err)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	items, err := h.svc.ListByDoctor(c.Request().Context(), doctorID)
	return h.respondList(c, items, err)
}

func (h *Handler) ListPendingByDoctor(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	items, err := h.svc.ListPendingByDoctor(c.Request().Context(), doctorID)
	return h.respondList(c, items, err)
}

func (h *Handler) respondList(c echo.Context, items []*Consultation, err error) error {
	if err != nil {
		return mapError(err)
	}
	pg := pagination.FromContext(c)
	start, end := pg.Slice(len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[start:end], len(items), pg.Limit, pg.Offset))
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
