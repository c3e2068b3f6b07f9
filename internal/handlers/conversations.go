package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agenteagro/agenteagro/internal/conversation"
)

// ConversationsHandler exposes conversations and their turns to the admin UI.
type ConversationsHandler struct {
	service *conversation.Service
	logger  *slog.Logger
}

func NewConversationsHandler(log *slog.Logger, service *conversation.Service) *ConversationsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ConversationsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "conversations")),
	}
}

func (h *ConversationsHandler) Register(e *echo.Echo) {
	group := e.Group("/conversations")
	group.GET("", h.List)
	group.GET("/:id/messages", h.ListMessages)
}

// List godoc
// @Summary List conversations
// @Description Paginated list ordered by most recent activity
// @Tags conversations
// @Param skip query int false "Offset"
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} conversation.Page
// @Failure 500 {object} ErrorResponse
// @Router /conversations [get]
func (h *ConversationsHandler) List(c echo.Context) error {
	page, err := h.service.List(c.Request().Context(), queryInt(c, "skip", 0), queryInt(c, "limit", 10))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, page)
}

// ListMessages godoc
// @Summary List conversation messages
// @Description Messages for one conversation, oldest first
// @Tags conversations
// @Param id path string true "Conversation ID"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size" default(100)
// @Success 200 {array} conversation.Message
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /conversations/{id}/messages [get]
func (h *ConversationsHandler) ListMessages(c echo.Context) error {
	msgs, err := h.service.ListMessages(c.Request().Context(), c.Param("id"), queryInt(c, "skip", 0), queryInt(c, "limit", 100))
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, msgs)
}
