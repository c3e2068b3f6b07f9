// Package pipeline runs the inbound message flow: persist the user turn,
// update conversation signals, generate a reply, persist it, dispatch it.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agenteagro/agenteagro/internal/ai"
	"github.com/agenteagro/agenteagro/internal/classify"
	"github.com/agenteagro/agenteagro/internal/conversation"
	"github.com/agenteagro/agenteagro/internal/document"
	"github.com/agenteagro/agenteagro/internal/professional"
	"github.com/agenteagro/agenteagro/internal/sysconfig"
	"github.com/agenteagro/agenteagro/internal/whatsapp"
)

// Fixed replies for degraded paths. These are user-facing strings, not error
// values: the pipeline always answers something.
const (
	replyCredentialMissing      = "Erro: Token do WhatsApp não configurado no sistema."
	replyImageDownloadFailed    = "Não consegui baixar a imagem do WhatsApp."
	replyDocumentDownloadFailed = "Não consegui baixar o documento."
	replyUnsupported            = "Desculpe, ainda não sei processar este tipo de mensagem."

	contextProfessionalsHeader = "\n\nCONTEXTO: Encontrei estes profissionais que podem ajudar o usuário. Se apropriado, sugira-os:\n"
	contextAskRegion           = "\n\nCONTEXTO: Ainda não sei a região (Estado/UF) do usuário. Pergunte educadamente onde ele está para indicarmos profissionais próximos."

	documentPromptHeader = "Analise este documento.\n\nConteúdo extraído:\n"
	documentCaptionLabel = "\n\nLegenda/Instrução do usuário: "

	// Character limits for document-derived text.
	signalTextLimit = 1000
	promptTextLimit = 4000
)

var (
	helpKeywords     = []string{"contato", "ajuda", "preciso", "procurar"}
	locationKeywords = []string{"onde", "região", "cidade"}
)

// ConversationStore is the conversation persistence surface the pipeline uses.
type ConversationStore interface {
	LookupOrCreate(ctx context.Context, whatsappID string) (conversation.Conversation, error)
	UpdateSignals(ctx context.Context, id, state, category string) error
	LogMessage(ctx context.Context, conversationID, role, content, mediaID string) (conversation.Message, error)
}

// ConfigReader resolves runtime credentials from system configuration.
type ConfigReader interface {
	Value(ctx context.Context, key string) string
}

// ProfessionalFinder suggests directory entries for a help request.
type ProfessionalFinder interface {
	FindRelevant(ctx context.Context, state, text string) ([]professional.Professional, error)
}

// MediaGateway is the WhatsApp transport surface the pipeline uses.
type MediaGateway interface {
	DownloadMedia(ctx context.Context, mediaID, accessToken string) ([]byte, error)
	SendText(ctx context.Context, accessToken, numberID, to, text string) error
}

// Responder generates assistant replies.
type Responder interface {
	GenerateText(ctx context.Context, text, context_, apiKey string) ai.Result
	GenerateVision(ctx context.Context, imageBase64, apiKey string) ai.Result
}

// Processor runs one inbound message end to end. Every failure mode resolves
// to a reply or a logged skip; Process never returns an error to the caller.
type Processor struct {
	conversations ConversationStore
	configs       ConfigReader
	finder        ProfessionalFinder
	gateway       MediaGateway
	responder     Responder
	logger        *slog.Logger
}

func NewProcessor(
	log *slog.Logger,
	conversations ConversationStore,
	configs ConfigReader,
	finder ProfessionalFinder,
	gateway MediaGateway,
	responder Responder,
) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		conversations: conversations,
		configs:       configs,
		finder:        finder,
		gateway:       gateway,
		responder:     responder,
		logger:        log.With(slog.String("service", "pipeline")),
	}
}

// Process handles one inbound message. Messages without a sender are ignored.
func (p *Processor) Process(ctx context.Context, msg whatsapp.InboundMessage) {
	if msg.From == "" {
		return
	}
	log := p.logger.With(slog.String("from", msg.From), slog.String("type", msg.Type))

	conv, err := p.conversations.LookupOrCreate(ctx, msg.From)
	if err != nil {
		log.Error("conversation lookup failed", slog.Any("error", err))
		return
	}

	body := displayBody(msg)
	mediaID := ""
	if ref := msg.MediaRef(); ref != nil {
		mediaID = ref.ID
	}

	// The user turn must be on record before anything else happens; failing
	// here aborts the run.
	if _, err := p.conversations.LogMessage(ctx, conv.ID, conversation.RoleUser, body, mediaID); err != nil {
		log.Error("logging user message failed", slog.Any("error", err))
		return
	}

	openAIKey := p.configs.Value(ctx, sysconfig.KeyOpenAIAPIKey)
	accessToken := p.configs.Value(ctx, sysconfig.KeyWhatsAppAccessToken)
	numberID := p.configs.Value(ctx, sysconfig.KeyWhatsAppNumberID)

	// Documents defer signal extraction until their text is available.
	if msg.Kind() != whatsapp.KindDocument {
		conv = p.updateSignals(ctx, log, conv, body)
	}

	var reply string
	switch {
	case msg.Kind() == whatsapp.KindText:
		reply = p.replyToText(ctx, conv, body, openAIKey)
	case msg.Kind() == whatsapp.KindImage && mediaID != "":
		reply = p.replyToImage(ctx, log, mediaID, accessToken, openAIKey)
	case msg.Kind() == whatsapp.KindDocument && mediaID != "":
		reply = p.replyToDocument(ctx, log, &conv, msg, accessToken, openAIKey)
	default:
		reply = replyUnsupported
	}

	// The assistant turn should be on record even when dispatch fails; the
	// reverse also holds, so a log failure does not cancel dispatch.
	if _, err := p.conversations.LogMessage(ctx, conv.ID, conversation.RoleAssistant, reply, ""); err != nil {
		log.Error("logging assistant message failed", slog.Any("error", err))
	}

	if accessToken == "" || numberID == "" {
		log.Error("whatsapp credentials not configured, reply not sent")
		return
	}
	if err := p.gateway.SendText(ctx, accessToken, numberID, msg.From, reply); err != nil {
		log.Error("sending reply failed", slog.Any("error", err))
	}
}

func (p *Processor) replyToText(ctx context.Context, conv conversation.Conversation, body, openAIKey string) string {
	lower := strings.ToLower(body)

	contextInfo := ""
	switch {
	case containsAny(lower, helpKeywords):
		pros, err := p.finder.FindRelevant(ctx, conv.LocationState, body)
		if err != nil {
			p.logger.Error("professional lookup failed", slog.Any("error", err))
		}
		if len(pros) > 0 {
			contextInfo = contextProfessionalsHeader + formatProfessionals(pros)
		}
	case conv.LocationState == "" && containsAny(lower, locationKeywords):
		contextInfo = contextAskRegion
	}

	return p.responder.GenerateText(ctx, body, contextInfo, openAIKey).Text
}

func (p *Processor) replyToImage(ctx context.Context, log *slog.Logger, mediaID, accessToken, openAIKey string) string {
	if accessToken == "" {
		return replyCredentialMissing
	}
	data, err := p.gateway.DownloadMedia(ctx, mediaID, accessToken)
	if err != nil {
		log.Error("image download failed", slog.Any("error", err))
		return replyImageDownloadFailed
	}
	return p.responder.GenerateVision(ctx, base64.StdEncoding.EncodeToString(data), openAIKey).Text
}

func (p *Processor) replyToDocument(ctx context.Context, log *slog.Logger, conv *conversation.Conversation, msg whatsapp.InboundMessage, accessToken, openAIKey string) string {
	if accessToken == "" {
		return replyCredentialMissing
	}
	ref := msg.MediaRef()
	data, err := p.gateway.DownloadMedia(ctx, ref.ID, accessToken)
	if err != nil {
		log.Error("document download failed", slog.Any("error", err))
		return replyDocumentDownloadFailed
	}

	docText := document.ExtractText(data, ref.MimeType)
	*conv = p.updateSignals(ctx, log, *conv, prefix(docText, signalTextLimit)+ref.Caption)

	prompt := documentPromptHeader + prefix(docText, promptTextLimit)
	if ref.Caption != "" {
		prompt += documentCaptionLabel + ref.Caption
	}
	return p.responder.GenerateText(ctx, prompt, "", openAIKey).Text
}

// updateSignals extracts state/category from the text and persists any change.
// A persistence failure keeps the previous values and does not stop the run.
func (p *Processor) updateSignals(ctx context.Context, log *slog.Logger, conv conversation.Conversation, text string) conversation.Conversation {
	state, category, changed := classify.Extract(text, conv.LocationState, conv.ProblemCategory)
	if !changed {
		return conv
	}
	if err := p.conversations.UpdateSignals(ctx, conv.ID, state, category); err != nil {
		log.Error("updating conversation signals failed", slog.Any("error", err))
		return conv
	}
	conv.LocationState = state
	conv.ProblemCategory = category
	return conv
}

// displayBody renders the loggable text for any message variant.
func displayBody(msg whatsapp.InboundMessage) string {
	switch msg.Kind() {
	case whatsapp.KindText:
		return msg.Body()
	case whatsapp.KindImage:
		if c := msg.Caption(); c != "" {
			return c
		}
		return "[Imagem]"
	case whatsapp.KindDocument:
		if c := msg.Caption(); c != "" {
			return c
		}
		filename := ""
		if msg.Document != nil {
			filename = msg.Document.Filename
		}
		return fmt.Sprintf("[Documento: %s]", filename)
	default:
		return fmt.Sprintf("[%s não suportado]", msg.Type)
	}
}

func formatProfessionals(pros []professional.Professional) string {
	lines := make([]string, 0, len(pros))
	for _, p := range pros {
		phone := p.Phone
		if phone == "" {
			phone = "N/A"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s), %s-%s. Tel: %s", p.Name, p.Type, p.City, p.State, phone))
	}
	return strings.Join(lines, "\n")
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// prefix truncates by characters, not bytes, so accented text keeps whole
// runes at the boundary.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
