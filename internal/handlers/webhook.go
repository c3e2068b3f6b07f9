package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agenteagro/agenteagro/internal/whatsapp"
)

// Enqueuer hands inbound messages to the processing pool.
type Enqueuer interface {
	Enqueue(msg whatsapp.InboundMessage) bool
}

// WebhookHandler terminates the WhatsApp webhook: the GET verification
// handshake and the POST message delivery.
type WebhookHandler struct {
	verifyToken string
	queue       Enqueuer
	logger      *slog.Logger
}

func NewWebhookHandler(log *slog.Logger, verifyToken string, queue Enqueuer) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		queue:       queue,
		logger:      log.With(slog.String("handler", "webhook")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.GET("/webhook", h.Verify)
	e.POST("/webhook", h.Receive)
}

// Verify godoc
// @Summary Webhook verification handshake
// @Description Echo hub.challenge when mode and verify token match
// @Tags webhook
// @Param hub.mode query string true "Subscription mode"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string
// @Failure 403 {object} ErrorResponse
// @Router /webhook [get]
func (h *WebhookHandler) Verify(c echo.Context) error {
	if c.QueryParam("hub.mode") == "subscribe" && c.QueryParam("hub.verify_token") == h.verifyToken {
		return c.String(http.StatusOK, c.QueryParam("hub.challenge"))
	}
	return echo.NewHTTPError(http.StatusForbidden, "Invalid verification token")
}

// Receive godoc
// @Summary Receive WhatsApp messages
// @Description Decode the delivery payload and enqueue every message
// @Tags webhook
// @Success 200 {object} map[string]string
// @Router /webhook [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	var payload whatsapp.WebhookPayload
	if err := c.Bind(&payload); err != nil {
		// A malformed delivery still gets acked; the platform retries
		// otherwise and the payload will not improve.
		h.logger.Error("webhook decode failed", slog.Any("error", err))
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	for _, msg := range payload.Messages() {
		h.queue.Enqueue(msg)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
