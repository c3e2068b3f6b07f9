package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agenteagro/agenteagro/internal/professional"
)

// ProfessionalsHandler manages the expert directory and the geo lookup.
type ProfessionalsHandler struct {
	service *professional.Service
	logger  *slog.Logger
}

func NewProfessionalsHandler(log *slog.Logger, service *professional.Service) *ProfessionalsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ProfessionalsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "professionals")),
	}
}

func (h *ProfessionalsHandler) Register(e *echo.Echo) {
	group := e.Group("/professionals")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)

	e.GET("/geo/nearby", h.Nearby)
}

// List godoc
// @Summary List professionals
// @Description List directory entries with optional state/type filters
// @Tags professionals
// @Param state query string false "State (UF) filter"
// @Param type query string false "Profession type filter"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size"
// @Success 200 {array} professional.Professional
// @Failure 500 {object} ErrorResponse
// @Router /professionals [get]
func (h *ProfessionalsHandler) List(c echo.Context) error {
	items, err := h.service.List(
		c.Request().Context(),
		strings.ToUpper(strings.TrimSpace(c.QueryParam("state"))),
		strings.TrimSpace(c.QueryParam("type")),
		queryInt(c, "skip", 0),
		queryInt(c, "limit", 100),
	)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []professional.Professional{}
	}
	return c.JSON(http.StatusOK, items)
}

// Create godoc
// @Summary Create professional
// @Description Add a directory entry
// @Tags professionals
// @Param payload body professional.CreateRequest true "Professional payload"
// @Success 201 {object} professional.Professional
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /professionals [post]
func (h *ProfessionalsHandler) Create(c echo.Context) error {
	var req professional.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	created, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

// Get godoc
// @Summary Get professional
// @Tags professionals
// @Param id path string true "Professional ID"
// @Success 200 {object} professional.Professional
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /professionals/{id} [get]
func (h *ProfessionalsHandler) Get(c echo.Context) error {
	p, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, professional.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Professional not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

// Update godoc
// @Summary Update professional
// @Description Apply non-empty fields to a directory entry
// @Tags professionals
// @Param id path string true "Professional ID"
// @Param payload body professional.UpdateRequest true "Update payload"
// @Success 200 {object} professional.Professional
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /professionals/{id} [put]
func (h *ProfessionalsHandler) Update(c echo.Context) error {
	var req professional.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	updated, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, professional.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Professional not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete professional
// @Description Remove a directory entry, returning the deleted record
// @Tags professionals
// @Param id path string true "Professional ID"
// @Success 200 {object} professional.Professional
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /professionals/{id} [delete]
func (h *ProfessionalsHandler) Delete(c echo.Context) error {
	deleted, err := h.service.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, professional.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Professional not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, deleted)
}

// Nearby godoc
// @Summary Find nearby professionals
// @Description Filter by profession; distance is unknown until entries carry coordinates
// @Tags geo
// @Param lat query number false "Latitude"
// @Param lon query number false "Longitude"
// @Param type query string false "Profession" default(veterinarian)
// @Success 200 {array} professional.NearbyEntry
// @Failure 500 {object} ErrorResponse
// @Router /geo/nearby [get]
func (h *ProfessionalsHandler) Nearby(c echo.Context) error {
	profession := c.QueryParam("type")
	if profession == "" {
		profession = "veterinarian"
	}
	items, err := h.service.FindNearby(c.Request().Context(), profession)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
