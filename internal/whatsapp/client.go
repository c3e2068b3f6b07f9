package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Media downloads can be large; cap what we are willing to buffer.
const maxMediaBytes = 32 << 20

// ErrMediaUnavailable is the uniform failure for media resolution. Callers
// must not branch on the underlying cause; it is only logged.
var ErrMediaUnavailable = errors.New("media unavailable")

// Client calls the WhatsApp Business API over authenticated HTTPS.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a transport client. baseURL defaults to the Graph API
// when empty; every call is bounded by the client timeout.
func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v17.0"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("service", "whatsapp")),
	}
}

type mediaLookupResponse struct {
	URL string `json:"url"`
}

// DownloadMedia resolves a media id to its short-lived URL and fetches the
// bytes, both with bearer auth. Any step failing yields ErrMediaUnavailable.
func (c *Client) DownloadMedia(ctx context.Context, mediaID, accessToken string) ([]byte, error) {
	lookupURL := fmt.Sprintf("%s/%s", c.baseURL, mediaID)
	body, err := c.get(ctx, lookupURL, accessToken)
	if err != nil {
		c.logger.Error("media url lookup failed", slog.String("media_id", mediaID), slog.Any("error", err))
		return nil, ErrMediaUnavailable
	}

	var lookup mediaLookupResponse
	if err := json.Unmarshal(body, &lookup); err != nil {
		c.logger.Error("media url lookup decode failed", slog.String("media_id", mediaID), slog.Any("error", err))
		return nil, ErrMediaUnavailable
	}
	if lookup.URL == "" {
		c.logger.Error("media url lookup returned no url", slog.String("media_id", mediaID))
		return nil, ErrMediaUnavailable
	}

	data, err := c.get(ctx, lookup.URL, accessToken)
	if err != nil {
		c.logger.Error("media download failed", slog.String("media_id", mediaID), slog.Any("error", err))
		return nil, ErrMediaUnavailable
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, url, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
}

type sendTextRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             sendTextBody `json:"text"`
}

type sendTextBody struct {
	Body string `json:"body"`
}

// SendText delivers a text message to the contact through the configured
// sender number.
func (c *Client) SendText(ctx context.Context, accessToken, numberID, to, text string) error {
	payload, err := json.Marshal(sendTextRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             sendTextBody{Body: text},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, numberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, detail)
	}
	c.logger.Info("message sent", slog.String("to", to))
	return nil
}
