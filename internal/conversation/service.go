// Package conversation persists conversations and their logged turns, and
// answers the analytics rollup queries over them.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenteagro/agenteagro/internal/db"
)

// ErrNotFound is returned when a conversation id does not exist.
var ErrNotFound = errors.New("conversation not found")

type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "conversation")),
	}
}

const conversationColumns = "id, whatsapp_id, location_state, problem_category, started_at, updated_at"

// LookupOrCreate returns the conversation for the contact, creating it when
// absent. The unique index on whatsapp_id makes concurrent creates converge
// on a single row: the insert is a no-op for the loser, and both readers
// fetch the same conversation.
func (s *Service) LookupOrCreate(ctx context.Context, whatsappID string) (Conversation, error) {
	if whatsappID == "" {
		return Conversation{}, fmt.Errorf("whatsapp id is required")
	}

	_, err := s.pool.Exec(ctx,
		"INSERT INTO conversations (whatsapp_id) VALUES ($1) ON CONFLICT (whatsapp_id) DO NOTHING",
		whatsappID,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE whatsapp_id = $1",
		whatsappID,
	)
	return scanConversation(row)
}

// Get returns a conversation by id.
func (s *Service) Get(ctx context.Context, id string) (Conversation, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Conversation{}, err
	}
	row := s.pool.QueryRow(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE id = $1",
		pgID,
	)
	conv, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return conv, err
}

// UpdateSignals stores newly extracted state/category values on the
// conversation and bumps updated_at.
func (s *Service) UpdateSignals(ctx context.Context, id, state, category string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		"UPDATE conversations SET location_state = $2, problem_category = $3, updated_at = now() WHERE id = $1",
		pgID, db.TextOrNull(state), db.TextOrNull(category),
	)
	if err != nil {
		return fmt.Errorf("update conversation signals: %w", err)
	}
	return nil
}

// LogMessage appends one immutable turn to the conversation.
func (s *Service) LogMessage(ctx context.Context, conversationID, role, content, mediaID string) (Message, error) {
	pgID, err := db.ParseUUID(conversationID)
	if err != nil {
		return Message{}, err
	}
	msg := Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		MediaID:        mediaID,
	}
	row := s.pool.QueryRow(ctx,
		"INSERT INTO messages (conversation_id, role, content, media_id) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		pgID, role, content, db.TextOrNull(mediaID),
	)
	var msgID pgtype.UUID
	if err := row.Scan(&msgID, &msg.CreatedAt); err != nil {
		return Message{}, fmt.Errorf("log message: %w", err)
	}
	msg.ID = db.UUIDString(msgID)
	return msg, nil
}

// List returns conversations ordered by most recent activity, with the total
// count for pagination.
func (s *Service) List(ctx context.Context, skip, limit int) (Page, error) {
	if limit <= 0 {
		limit = 10
	}

	var total int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM conversations").Scan(&total); err != nil {
		return Page{}, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+conversationColumns+" FROM conversations ORDER BY updated_at DESC OFFSET $1 LIMIT $2",
		skip, limit,
	)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	items := make([]Conversation, 0, limit)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return Page{}, err
		}
		items = append(items, conv)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total}, nil
}

// ListMessages returns a conversation's turns oldest-first.
func (s *Service) ListMessages(ctx context.Context, conversationID string, skip, limit int) ([]Message, error) {
	if _, err := s.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	pgID, err := db.ParseUUID(conversationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		"SELECT id, conversation_id, role, content, media_id, created_at FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC OFFSET $2 LIMIT $3",
		pgID, skip, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]Message, 0, limit)
	for rows.Next() {
		var (
			msg     Message
			id      pgtype.UUID
			convID  pgtype.UUID
			mediaID pgtype.Text
		)
		if err := rows.Scan(&id, &convID, &msg.Role, &msg.Content, &mediaID, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.ID = db.UUIDString(id)
		msg.ConversationID = db.UUIDString(convID)
		msg.MediaID = db.TextOrEmpty(mediaID)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// CountByState ranks states by conversation count.
func (s *Service) CountByState(ctx context.Context) ([]StateCount, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT location_state, COUNT(id) AS count FROM conversations WHERE location_state IS NOT NULL GROUP BY location_state ORDER BY count DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StateCount
	for rows.Next() {
		var sc StateCount
		if err := rows.Scan(&sc.State, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// CountByCategory ranks problem categories, optionally within one state.
func (s *Service) CountByCategory(ctx context.Context, state string) ([]ProblemCount, error) {
	query := "SELECT problem_category, COUNT(id) AS count FROM conversations WHERE problem_category IS NOT NULL"
	args := []any{}
	if state != "" {
		query += " AND location_state = $1"
		args = append(args, state)
	}
	query += " GROUP BY problem_category ORDER BY count DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProblemCount
	for rows.Next() {
		var pc ProblemCount
		if err := rows.Scan(&pc.Problem, &pc.Count); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

// CountByStateAndCategory ranks problem categories within each state.
func (s *Service) CountByStateAndCategory(ctx context.Context) ([]StateProblems, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT location_state, problem_category, COUNT(id) AS count FROM conversations "+
			"WHERE location_state IS NOT NULL AND problem_category IS NOT NULL "+
			"GROUP BY location_state, problem_category ORDER BY location_state, count DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StateProblems
	for rows.Next() {
		var (
			state string
			pc    ProblemCount
		)
		if err := rows.Scan(&state, &pc.Problem, &pc.Count); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].State != state {
			out = append(out, StateProblems{State: state})
		}
		out[len(out)-1].Problems = append(out[len(out)-1].Problems, pc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (Conversation, error) {
	var (
		conv     Conversation
		id       pgtype.UUID
		state    pgtype.Text
		category pgtype.Text
	)
	if err := row.Scan(&id, &conv.WhatsAppID, &state, &category, &conv.StartedAt, &conv.UpdatedAt); err != nil {
		return Conversation{}, err
	}
	conv.ID = db.UUIDString(id)
	conv.LocationState = db.TextOrEmpty(state)
	conv.ProblemCategory = db.TextOrEmpty(category)
	return conv, nil
}
