package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/agenteagro/agenteagro/internal/ai"
	"github.com/agenteagro/agenteagro/internal/conversation"
	"github.com/agenteagro/agenteagro/internal/professional"
	"github.com/agenteagro/agenteagro/internal/whatsapp"
)

type loggedMessage struct {
	Role    string
	Content string
	MediaID string
}

type signalUpdate struct {
	State    string
	Category string
}

type fakeStore struct {
	conv             conversation.Conversation
	logged           []loggedMessage
	signals          []signalUpdate
	lookups          int
	failUserLog      bool
	failAssistantLog bool
}

func (s *fakeStore) LookupOrCreate(_ context.Context, whatsappID string) (conversation.Conversation, error) {
	s.lookups++
	if s.conv.ID == "" {
		s.conv = conversation.Conversation{ID: "conv-1", WhatsAppID: whatsappID}
	}
	return s.conv, nil
}

func (s *fakeStore) UpdateSignals(_ context.Context, _, state, category string) error {
	s.signals = append(s.signals, signalUpdate{State: state, Category: category})
	s.conv.LocationState = state
	s.conv.ProblemCategory = category
	return nil
}

func (s *fakeStore) LogMessage(_ context.Context, _, role, content, mediaID string) (conversation.Message, error) {
	if role == conversation.RoleUser && s.failUserLog {
		return conversation.Message{}, errors.New("insert failed")
	}
	if role == conversation.RoleAssistant && s.failAssistantLog {
		return conversation.Message{}, errors.New("insert failed")
	}
	s.logged = append(s.logged, loggedMessage{Role: role, Content: content, MediaID: mediaID})
	return conversation.Message{ID: fmt.Sprintf("msg-%d", len(s.logged))}, nil
}

type fakeConfig map[string]string

func (c fakeConfig) Value(_ context.Context, key string) string { return c[key] }

type fakeFinder struct {
	state string
	text  string
	pros  []professional.Professional
	calls int
}

func (f *fakeFinder) FindRelevant(_ context.Context, state, text string) ([]professional.Professional, error) {
	f.calls++
	f.state = state
	f.text = text
	return f.pros, nil
}

type sentText struct {
	To   string
	Body string
}

type fakeGateway struct {
	downloads   int
	downloadErr error
	data        []byte
	sent        []sentText
}

func (g *fakeGateway) DownloadMedia(_ context.Context, _, _ string) ([]byte, error) {
	g.downloads++
	if g.downloadErr != nil {
		return nil, g.downloadErr
	}
	return g.data, nil
}

func (g *fakeGateway) SendText(_ context.Context, _, _, to, text string) error {
	g.sent = append(g.sent, sentText{To: to, Body: text})
	return nil
}

type textCall struct {
	Text    string
	Context string
	Key     string
}

type fakeResponder struct {
	textCalls   []textCall
	visionImage string
	visionCalls int
	reply       string
}

func (r *fakeResponder) GenerateText(_ context.Context, text, context_, apiKey string) ai.Result {
	r.textCalls = append(r.textCalls, textCall{Text: text, Context: context_, Key: apiKey})
	return ai.Result{Text: r.reply, Reason: ai.ReasonOK}
}

func (r *fakeResponder) GenerateVision(_ context.Context, imageBase64, _ string) ai.Result {
	r.visionCalls++
	r.visionImage = imageBase64
	return ai.Result{Text: r.reply, Reason: ai.ReasonOK}
}

type fixture struct {
	store     *fakeStore
	config    fakeConfig
	finder    *fakeFinder
	gateway   *fakeGateway
	responder *fakeResponder
	processor *Processor
}

func newFixture() *fixture {
	f := &fixture{
		store: &fakeStore{},
		config: fakeConfig{
			"openai_api_key":        "sk-test",
			"whatsapp_access_token": "token",
			"whatsapp_number_id":    "12345",
		},
		finder:    &fakeFinder{},
		gateway:   &fakeGateway{},
		responder: &fakeResponder{reply: "resposta do assistente"},
	}
	f.processor = NewProcessor(nil, f.store, f.config, f.finder, f.gateway, f.responder)
	return f
}

func textMessage(from, body string) whatsapp.InboundMessage {
	return whatsapp.InboundMessage{
		From: from,
		Type: "text",
		Text: &whatsapp.TextBody{Body: body},
	}
}

func TestProcessTextMessage(t *testing.T) {
	f := newFixture()

	f.processor.Process(context.Background(), textMessage("5511999990000", "Estou com uma praga na soja em MT"))

	if f.store.lookups != 1 {
		t.Fatalf("lookups = %d, want 1", f.store.lookups)
	}
	if len(f.store.logged) != 2 {
		t.Fatalf("logged %d messages, want 2", len(f.store.logged))
	}
	if f.store.logged[0].Role != conversation.RoleUser || f.store.logged[1].Role != conversation.RoleAssistant {
		t.Fatalf("roles = %q, %q, want user then assistant", f.store.logged[0].Role, f.store.logged[1].Role)
	}
	if f.store.logged[1].Content != "resposta do assistente" {
		t.Fatalf("assistant content = %q", f.store.logged[1].Content)
	}

	if len(f.store.signals) != 1 {
		t.Fatalf("signal updates = %d, want 1", len(f.store.signals))
	}
	if got := f.store.signals[0]; got.State != "MT" || got.Category != "Praga" {
		t.Fatalf("signals = %+v, want MT/Praga", got)
	}

	if len(f.responder.textCalls) != 1 {
		t.Fatalf("text calls = %d, want 1", len(f.responder.textCalls))
	}
	call := f.responder.textCalls[0]
	if call.Text != "Estou com uma praga na soja em MT" || call.Context != "" || call.Key != "sk-test" {
		t.Fatalf("unexpected text call %+v", call)
	}

	if len(f.gateway.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.gateway.sent))
	}
	if got := f.gateway.sent[0]; got.To != "5511999990000" || got.Body != "resposta do assistente" {
		t.Fatalf("unexpected dispatch %+v", got)
	}
}

func TestProcessHelpRequestInjectsProfessionalContext(t *testing.T) {
	f := newFixture()
	f.finder.pros = []professional.Professional{
		{Name: "Ana Souza", Type: professional.TypeVeterinarian, City: "Uberlândia", State: "MG", Phone: "34 99999-0000"},
		{Name: "Carlos Lima", Type: professional.TypeVeterinarian, City: "Juiz de Fora", State: "MG"},
	}

	f.processor.Process(context.Background(), textMessage("5531988887777", "Preciso de contato de veterinário em MG"))

	if f.finder.calls != 1 {
		t.Fatalf("finder calls = %d, want 1", f.finder.calls)
	}
	// Region extraction happens before the lookup, so the finder sees MG.
	if f.finder.state != "MG" {
		t.Fatalf("finder state = %q, want MG", f.finder.state)
	}

	ctx := f.responder.textCalls[0].Context
	if !strings.Contains(ctx, "CONTEXTO") {
		t.Fatalf("context missing CONTEXTO block: %q", ctx)
	}
	if !strings.Contains(ctx, "- Ana Souza (Veterinário), Uberlândia-MG. Tel: 34 99999-0000") {
		t.Fatalf("context missing formatted entry: %q", ctx)
	}
	if !strings.Contains(ctx, "- Carlos Lima (Veterinário), Juiz de Fora-MG. Tel: N/A") {
		t.Fatalf("context missing N/A phone entry: %q", ctx)
	}
}

func TestProcessLocationQuestionAsksForRegion(t *testing.T) {
	f := newFixture()

	f.processor.Process(context.Background(), textMessage("5511999990000", "Tem alguém na minha cidade?"))

	if f.finder.calls != 0 {
		t.Fatalf("finder calls = %d, want 0", f.finder.calls)
	}
	if got := f.responder.textCalls[0].Context; got != contextAskRegion {
		t.Fatalf("context = %q, want ask-region block", got)
	}
}

func TestProcessLocationQuestionSkippedWhenStateKnown(t *testing.T) {
	f := newFixture()
	f.store.conv = conversation.Conversation{ID: "conv-1", LocationState: "SP"}

	f.processor.Process(context.Background(), textMessage("5511999990000", "Tem alguém na minha cidade?"))

	if got := f.responder.textCalls[0].Context; got != "" {
		t.Fatalf("context = %q, want empty", got)
	}
}

func TestProcessImageMessage(t *testing.T) {
	f := newFixture()
	f.gateway.data = []byte{0xFF, 0xD8, 0xFF}

	f.processor.Process(context.Background(), whatsapp.InboundMessage{
		From:  "5511999990000",
		Type:  "image",
		Image: &whatsapp.Media{ID: "media-9", Caption: "Minha soja com ferrugem"},
	})

	if f.gateway.downloads != 1 {
		t.Fatalf("downloads = %d, want 1", f.gateway.downloads)
	}
	if f.responder.visionCalls != 1 {
		t.Fatalf("vision calls = %d, want 1", f.responder.visionCalls)
	}
	if want := base64.StdEncoding.EncodeToString(f.gateway.data); f.responder.visionImage != want {
		t.Fatalf("vision image = %q, want %q", f.responder.visionImage, want)
	}

	// Caption is the display body and also feeds signal extraction.
	if f.store.logged[0].Content != "Minha soja com ferrugem" || f.store.logged[0].MediaID != "media-9" {
		t.Fatalf("user log = %+v", f.store.logged[0])
	}
	if len(f.store.signals) != 1 || f.store.signals[0].Category != "Doença" {
		t.Fatalf("signals = %+v, want Doença", f.store.signals)
	}
	if len(f.gateway.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.gateway.sent))
	}
}

func TestProcessImageWithoutTokenRepliesCredentialError(t *testing.T) {
	f := newFixture()
	delete(f.config, "whatsapp_access_token")

	f.processor.Process(context.Background(), whatsapp.InboundMessage{
		From:  "5511999990000",
		Type:  "image",
		Image: &whatsapp.Media{ID: "media-9"},
	})

	if f.gateway.downloads != 0 {
		t.Fatalf("downloads = %d, want 0", f.gateway.downloads)
	}
	if f.store.logged[1].Content != replyCredentialMissing {
		t.Fatalf("assistant content = %q", f.store.logged[1].Content)
	}
	// Dispatch needs the same missing token, so nothing goes out.
	if len(f.gateway.sent) != 0 {
		t.Fatalf("sent %d messages, want 0", len(f.gateway.sent))
	}
}

func TestProcessImageDownloadFailure(t *testing.T) {
	f := newFixture()
	f.gateway.downloadErr = whatsapp.ErrMediaUnavailable

	f.processor.Process(context.Background(), whatsapp.InboundMessage{
		From:  "5511999990000",
		Type:  "image",
		Image: &whatsapp.Media{ID: "media-9"},
	})

	if f.responder.visionCalls != 0 {
		t.Fatalf("vision calls = %d, want 0", f.responder.visionCalls)
	}
	if f.store.logged[1].Content != replyImageDownloadFailed {
		t.Fatalf("assistant content = %q", f.store.logged[1].Content)
	}
	if len(f.gateway.sent) != 1 || f.gateway.sent[0].Body != replyImageDownloadFailed {
		t.Fatalf("sent = %+v", f.gateway.sent)
	}
}

func TestProcessDocumentMessage(t *testing.T) {
	f := newFixture()
	f.gateway.data = []byte("Relatório da lavoura de soja em GO: foco de ferrugem asiática na área 3.")

	f.processor.Process(context.Background(), whatsapp.InboundMessage{
		From: "5511999990000",
		Type: "document",
		Document: &whatsapp.Media{
			ID:       "media-7",
			Filename: "relatorio.txt",
			MimeType: "text/plain",
			Caption:  "Resuma por favor",
		},
	})

	if f.store.logged[0].Content != "Resuma por favor" {
		t.Fatalf("user log content = %q", f.store.logged[0].Content)
	}

	// Signals come from the extracted text, not the caption alone.
	if len(f.store.signals) != 1 {
		t.Fatalf("signal updates = %d, want 1", len(f.store.signals))
	}
	if got := f.store.signals[0]; got.State != "GO" || got.Category != "Doença" {
		t.Fatalf("signals = %+v, want GO/Doença", got)
	}

	prompt := f.responder.textCalls[0].Text
	if !strings.HasPrefix(prompt, documentPromptHeader) {
		t.Fatalf("prompt missing header: %q", prompt)
	}
	if !strings.Contains(prompt, "ferrugem asiática") {
		t.Fatalf("prompt missing extracted text: %q", prompt)
	}
	if !strings.Contains(prompt, documentCaptionLabel+"Resuma por favor") {
		t.Fatalf("prompt missing caption line: %q", prompt)
	}
}

func TestProcessDocumentWithoutCaptionUsesFilename(t *testing.T) {
	f := newFixture()
	f.gateway.data = []byte("conteúdo simples")

	f.processor.Process(context.Background(), whatsapp.InboundMessage{
		From:     "5511999990000",
		Type:     "document",
		Document: &whatsapp.Media{ID: "media-7", Filename: "laudo.txt", MimeType: "text/plain"},
	})

	if f.store.logged[0].Content != "[Documento: laudo.txt]" {
		t.Fatalf("user log content = %q", f.store.logged[0].Content)
	}
	if strings.Contains(f.responder.textCalls[0].Text, documentCaptionLabel) {
		t.Fatalf("prompt has caption line without a caption: %q", f.responder.textCalls[0].Text)
	}
}

func TestProcessUnsupportedType(t *testing.T) {
	f := newFixture()

	f.processor.Process(context.Background(), whatsapp.InboundMessage{From: "5511999990000", Type: "sticker"})

	if f.store.logged[0].Content != "[sticker não suportado]" {
		t.Fatalf("user log content = %q", f.store.logged[0].Content)
	}
	if f.store.logged[1].Content != replyUnsupported {
		t.Fatalf("assistant content = %q", f.store.logged[1].Content)
	}
	if len(f.gateway.sent) != 1 || f.gateway.sent[0].Body != replyUnsupported {
		t.Fatalf("sent = %+v", f.gateway.sent)
	}
}

func TestProcessIgnoresMessageWithoutSender(t *testing.T) {
	f := newFixture()

	f.processor.Process(context.Background(), whatsapp.InboundMessage{Type: "text", Text: &whatsapp.TextBody{Body: "oi"}})

	if f.store.lookups != 0 || len(f.gateway.sent) != 0 {
		t.Fatalf("sender-less message was processed")
	}
}

func TestProcessUserLogFailureAbortsRun(t *testing.T) {
	f := newFixture()
	f.store.failUserLog = true

	f.processor.Process(context.Background(), textMessage("5511999990000", "olá"))

	if len(f.responder.textCalls) != 0 {
		t.Fatalf("responder called after aborted log")
	}
	if len(f.gateway.sent) != 0 {
		t.Fatalf("dispatch attempted after aborted log")
	}
}

func TestProcessAssistantLogFailureStillDispatches(t *testing.T) {
	f := newFixture()
	f.store.failAssistantLog = true

	f.processor.Process(context.Background(), textMessage("5511999990000", "olá"))

	if len(f.gateway.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.gateway.sent))
	}
}
