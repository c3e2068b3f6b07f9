// Package ai adapts the remote completion capability. Failures never reach
// callers as errors: every call returns display-ready text plus a Reason.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	model = "gpt-4o"

	systemPersona = "Você é o AgenteAgro, um assistente especialista em agricultura e veterinária. Forneça conselhos práticos e técnicos. "

	visionInstruction = "Você é um especialista agrícola. Analise esta imagem detalhadamente. " +
		"Se for uma planta ou animal, identifique possíveis doenças, pragas ou problemas nutricionais. " +
		"Se for um documento, transcreva e resuma o conteúdo."

	// Output ceiling for vision calls.
	visionMaxTokens = 500

	textFailureReply   = "Desculpe, estou com dificuldades para processar sua mensagem no momento."
	visionFailureReply = "Desculpe, não consegui analisar a imagem enviada."
)

// Client calls the OpenAI chat completion API. The default key is injected at
// construction; a per-call key from system configuration takes precedence.
type Client struct {
	baseURL    string
	defaultKey string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an AI client. baseURL defaults to the OpenAI API and
// defaultKey may be empty, in which case calls without a per-call key return
// simulated responses.
func NewClient(log *slog.Logger, baseURL, defaultKey string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		defaultKey: defaultKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("service", "ai")),
	}
}

// GenerateText produces assistant text for a user message. context is an
// optional extra instruction block appended to the system persona. apiKey
// overrides the default key when non-empty.
func (c *Client) GenerateText(ctx context.Context, text, context_, apiKey string) Result {
	key := c.resolveKey(apiKey)
	if key == "" {
		return Result{
			Text:   fmt.Sprintf("Simulated AI Response: OpenAI API Key not configured. [Context: %s]", context_),
			Reason: ReasonSimulated,
		}
	}

	content, err := c.complete(ctx, key, chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPersona + context_},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		c.logger.Error("text completion failed", slog.Any("error", err))
		return Result{Text: textFailureReply, Reason: ReasonFailed}
	}
	return Result{Text: content, Reason: ReasonOK}
}

// GenerateVision produces assistant text for a base64-encoded JPEG image.
func (c *Client) GenerateVision(ctx context.Context, imageBase64, apiKey string) Result {
	key := c.resolveKey(apiKey)
	if key == "" {
		return Result{
			Text:   "Simulated Vision Response: OpenAI API Key not configured.",
			Reason: ReasonSimulated,
		}
	}

	content, err := c.complete(ctx, key, chatCompletionRequest{
		Model:     model,
		MaxTokens: visionMaxTokens,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: visionInstruction},
					{Type: "image_url", ImageURL: &imageURL{URL: "data:image/jpeg;base64," + imageBase64}},
				},
			},
		},
	})
	if err != nil {
		c.logger.Error("vision completion failed", slog.Any("error", err))
		return Result{Text: visionFailureReply, Reason: ReasonFailed}
	}
	return Result{Text: content, Reason: ReasonOK}
}

func (c *Client) resolveKey(apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	return c.defaultKey
}

func (c *Client) complete(ctx context.Context, apiKey string, reqBody chatCompletionRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("completion status %d: %s", resp.StatusCode, detail)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
