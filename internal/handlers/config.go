package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agenteagro/agenteagro/internal/sysconfig"
)

// ConfigHandler manages the system configuration key/value store.
type ConfigHandler struct {
	service *sysconfig.Service
	logger  *slog.Logger
}

func NewConfigHandler(log *slog.Logger, service *sysconfig.Service) *ConfigHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ConfigHandler{
		service: service,
		logger:  log.With(slog.String("handler", "config")),
	}
}

func (h *ConfigHandler) Register(e *echo.Echo) {
	group := e.Group("/config")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:key", h.Get)
	group.PUT("/:key", h.Upsert)
}

// List godoc
// @Summary List config entries
// @Tags config
// @Success 200 {array} sysconfig.Entry
// @Failure 500 {object} ErrorResponse
// @Router /config [get]
func (h *ConfigHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []sysconfig.Entry{}
	}
	return c.JSON(http.StatusOK, items)
}

// Create godoc
// @Summary Create config entry
// @Description Create a new key; fails when the key exists
// @Tags config
// @Param payload body sysconfig.CreateRequest true "Config payload"
// @Success 201 {object} sysconfig.Entry
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /config [post]
func (h *ConfigHandler) Create(c echo.Context) error {
	var req sysconfig.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	entry, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, sysconfig.ErrKeyExists) {
			return echo.NewHTTPError(http.StatusBadRequest, "Key already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}

// Get godoc
// @Summary Get config entry
// @Tags config
// @Param key path string true "Config key"
// @Success 200 {object} sysconfig.Entry
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /config/{key} [get]
func (h *ConfigHandler) Get(c echo.Context) error {
	entry, err := h.service.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, sysconfig.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Config not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entry)
}

// Upsert godoc
// @Summary Set config value
// @Description Update a key's value, creating the key when it is missing
// @Tags config
// @Param key path string true "Config key"
// @Param payload body sysconfig.UpsertRequest true "Value payload"
// @Success 200 {object} sysconfig.Entry
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /config/{key} [put]
func (h *ConfigHandler) Upsert(c echo.Context) error {
	var req sysconfig.UpsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.service.Upsert(c.Request().Context(), c.Param("key"), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entry)
}
