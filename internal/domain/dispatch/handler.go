package dispatch

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	read.GET("/dispatch-units", h.List)
	read.GET("/dispatch-units/closest", h.Closest)
	read.GET("/dispatch-units/:id", h.Get)
	read.GET("/dispatch-units/by-account/:accountId", h.GetByAccount)

	write := api.Group("", auth.RequireRole("dispatch"))
	write.POST("/dispatch-units", h.Register)
	write.PUT("/dispatch-units/by-account/:accountId/status", h.UpdateStatus)
	write.PUT("/dispatch-units/by-account/:accountId/location", h.UpdateLocation)
}

type registerRequest struct {
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
	Type      UnitType  `json:"type"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Register(c.Request().Context(), req.AccountID, req.Name, req.Type)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	u, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) GetByAccount(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	u, err := h.svc.GetByAccountID(c.Request().Context(), accountID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) List(c echo.Context) error {
	units, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	pg := pagination.FromContext(c)
	start, end := pg.Slice(len(units))
	return c.JSON(http.StatusOK, pagination.NewResponse(units[start:end], len(units), pg.Limit, pg.Offset))
}

func (h *Handler) Closest(c echo.Context) error {
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if latErr != nil || lngErr != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lat and lng are required")
	}
	u, err := h.svc.FindClosest(c.Request().Context(), geo.Point{Lat: lat, Lng: lng})
	if err != nil {
		return mapError(err)
	}
	if u == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no dispatch unit has a known location")
	}
	return c.JSON(http.StatusOK, u)
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
	u, err := h.svc.UpdateStatus(c.Request().Context(), accountID, req.Status)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, u)
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
	u, err := h.svc.UpdateLocation(c.Request().Context(), accountID, loc)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "dispatch unit not found")
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
