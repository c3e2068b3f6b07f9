package ai

// Reason classifies how a reply was produced, so callers and tests can branch
// without matching on the user-facing text.
type Reason string

const (
	// ReasonOK means the remote model produced the text.
	ReasonOK Reason = "ok"
	// ReasonSimulated means no API key was available and a deterministic
	// placeholder was returned.
	ReasonSimulated Reason = "simulated"
	// ReasonFailed means the remote call failed and the fixed apology text
	// was returned.
	ReasonFailed Reason = "failed"
)

// Result pairs the display text with the reason it was produced. Text is
// always safe to show to the user.
type Result struct {
	Text   string
	Reason Reason
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
