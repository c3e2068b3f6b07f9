package conversation

import "time"

// Roles for logged turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is the persistent thread for one WhatsApp contact. State and
// category are empty strings until a signal is extracted.
type Conversation struct {
	ID              string    `json:"id"`
	WhatsAppID      string    `json:"whatsapp_id"`
	LocationState   string    `json:"location_state,omitempty"`
	ProblemCategory string    `json:"problem_category,omitempty"`
	StartedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Message is one immutable logged turn.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	MediaID        string    `json:"media_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Page is a paginated conversation listing.
type Page struct {
	Items []Conversation `json:"items"`
	Total int64          `json:"total"`
}

// StateCount is one analytics rollup row grouped by state.
type StateCount struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

// ProblemCount is one analytics rollup row grouped by problem category.
type ProblemCount struct {
	Problem string `json:"problem"`
	Count   int64  `json:"count"`
}

// StateProblems groups problem counts under one state.
type StateProblems struct {
	State    string         `json:"state"`
	Problems []ProblemCount `json:"problems"`
}
