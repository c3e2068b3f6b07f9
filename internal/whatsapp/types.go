// Package whatsapp implements the WhatsApp Business (Graph) API transport:
// webhook payload decoding, media download, and outbound text delivery.
package whatsapp

// MessageKind is the closed set of inbound message variants the pipeline
// handles. Anything unrecognized decodes to KindUnsupported.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindImage       MessageKind = "image"
	KindDocument    MessageKind = "document"
	KindUnsupported MessageKind = "unsupported"
)

// TextBody is the text variant payload.
type TextBody struct {
	Body string `json:"body"`
}

// Media is the shared shape of image and document variant payloads.
type Media struct {
	ID       string `json:"id"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// InboundMessage is one message from a webhook delivery. Variant fields are
// pointers so absent payload sections read as nil rather than zero structs.
type InboundMessage struct {
	From      string    `json:"from"`
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *TextBody `json:"text,omitempty"`
	Image     *Media    `json:"image,omitempty"`
	Document  *Media    `json:"document,omitempty"`
}

// Kind maps the loosely-typed wire value onto the closed variant set.
func (m InboundMessage) Kind() MessageKind {
	switch m.Type {
	case "text":
		return KindText
	case "image":
		return KindImage
	case "document":
		return KindDocument
	default:
		return KindUnsupported
	}
}

// MediaRef returns the media payload for image/document messages, or nil.
func (m InboundMessage) MediaRef() *Media {
	switch m.Kind() {
	case KindImage:
		return m.Image
	case KindDocument:
		return m.Document
	default:
		return nil
	}
}

// Body returns the text body, tolerating an absent text section.
func (m InboundMessage) Body() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}

// Caption returns the media caption, tolerating absent payload sections.
func (m InboundMessage) Caption() string {
	if ref := m.MediaRef(); ref != nil {
		return ref.Caption
	}
	return ""
}

// WebhookPayload is the nested delivery envelope posted by the platform.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one account-level notification batch.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one field-change notification inside an entry.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue carries the messages of a change.
type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// Messages flattens every message of every change of every entry, in
// delivery order.
func (p WebhookPayload) Messages() []InboundMessage {
	var out []InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			out = append(out, change.Value.Messages...)
		}
	}
	return out
}
