package doctor

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/zambuko/telehealth/internal/domain/triage"
	"github.com/zambuko/telehealth/internal/platform/auth"
	"github.com/zambuko/telehealth/pkg/geo"
	"github.com/zambuko/telehealth/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("patient", "doctor", "dispatch"))
	read.GET("/doctors", h.List)
	read.GET("/doctors/match", h.Match)
	read.GET("/doctors/:id", h.Get)
	read.GET("/doctors/by-account/:accountId", h.GetByAccount)

	write := api.Group("", auth.RequireRole("doctor"))
	write.POST("/doctors", h.Register)
	write.POST("/doctors/by-account/:accountId/heartbeat", h.Heartbeat)
	write.PUT("/doctors/by-account/:accountId/status", h.UpdateStatus)
	write.PUT("/doctors/by-account/:accountId/location", h.UpdateLocation)
}

type registerRequest struct {
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Register(c.Request().Context(), req.AccountID, req.Name, req.Specialty)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetByAccount(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	p, err := h.svc.GetByAccountID(c.Request().Context(), accountID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	profiles, err := h.svc.ListWithLiveness(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	pg := pagination.FromContext(c)
	start, end := pg.Slice(len(profiles))
	return c.JSON(http.StatusOK, pagination.NewResponse(profiles[start:end], len(profiles), pg.Limit, pg.Offset))
}

func (h *Handler) Match(c echo.Context) error {
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if latErr != nil || lngErr != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lat and lng are required")
	}
	urgency := triage.ParseLevel(c.QueryParam("urgency"))

	candidates, err := h.svc.Match(c.Request().Context(),
		geo.Point{Lat: lat, Lng: lng}, c.QueryParam("specialty"), urgency)
	if err != nil {
		return mapError(err)
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	return c.JSON(http.StatusOK, candidates)
}

func (h *Handler) Heartbeat(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	if err := h.svc.Heartbeat(c.Request().Context(), accountID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdateStatus(c.Request().Context(), accountID, req.Status)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateLocation(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	var loc geo.Point
	if err := c.Bind(&loc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdateLocation(c.Request().Context(), accountID, loc)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
