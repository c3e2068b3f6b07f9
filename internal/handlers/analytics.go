package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agenteagro/agenteagro/internal/conversation"
)

// AnalyticsHandler serves the conversation rollup rankings.
type AnalyticsHandler struct {
	service *conversation.Service
	logger  *slog.Logger
}

func NewAnalyticsHandler(log *slog.Logger, service *conversation.Service) *AnalyticsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AnalyticsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "analytics")),
	}
}

func (h *AnalyticsHandler) Register(e *echo.Echo) {
	group := e.Group("/analytics")
	group.GET("/states", h.StateRanking)
	group.GET("/problems", h.ProblemRanking)
	group.GET("/problems-by-region", h.ProblemsByRegion)
}

// StateRanking godoc
// @Summary State ranking
// @Description Rank states by conversation count
// @Tags analytics
// @Success 200 {array} conversation.StateCount
// @Failure 500 {object} ErrorResponse
// @Router /analytics/states [get]
func (h *AnalyticsHandler) StateRanking(c echo.Context) error {
	items, err := h.service.CountByState(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []conversation.StateCount{}
	}
	return c.JSON(http.StatusOK, items)
}

// ProblemRanking godoc
// @Summary Problem ranking
// @Description Rank problem categories, optionally within one state
// @Tags analytics
// @Param state query string false "State (UF) filter"
// @Success 200 {array} conversation.ProblemCount
// @Failure 500 {object} ErrorResponse
// @Router /analytics/problems [get]
func (h *AnalyticsHandler) ProblemRanking(c echo.Context) error {
	state := strings.ToUpper(strings.TrimSpace(c.QueryParam("state")))
	items, err := h.service.CountByCategory(c.Request().Context(), state)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []conversation.ProblemCount{}
	}
	return c.JSON(http.StatusOK, items)
}

// ProblemsByRegion godoc
// @Summary Problems grouped by state
// @Tags analytics
// @Success 200 {array} conversation.StateProblems
// @Failure 500 {object} ErrorResponse
// @Router /analytics/problems-by-region [get]
func (h *AnalyticsHandler) ProblemsByRegion(c echo.Context) error {
	items, err := h.service.CountByStateAndCategory(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []conversation.StateProblems{}
	}
	return c.JSON(http.StatusOK, items)
}
