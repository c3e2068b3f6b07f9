// Package sysconfig is the key/value system configuration store. The
// pipeline reads credentials from it; absence of a key is never fatal.
package sysconfig

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenteagro/agenteagro/internal/db"
)

// Keys the conversation pipeline consumes.
const (
	KeyOpenAIAPIKey        = "openai_api_key"
	KeyWhatsAppAccessToken = "whatsapp_access_token"
	KeyWhatsAppNumberID    = "whatsapp_number_id"
)

var (
	ErrNotFound  = errors.New("config not found")
	ErrKeyExists = errors.New("config key already exists")
)

// Entry is one configuration key/value pair.
type Entry struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpsertRequest carries the new value for a key.
type UpsertRequest struct {
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// CreateRequest creates a new key.
type CreateRequest struct {
	Key         string `json:"key" validate:"required"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

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
		logger: log.With(slog.String("service", "sysconfig")),
	}
}

const configColumns = "id, key, value, description"

// Value returns the stored value for key, or "" when the key is absent or
// holds NULL. Lookup errors are logged, not propagated: a missing credential
// must degrade behavior, not abort it.
func (s *Service) Value(ctx context.Context, key string) string {
	entry, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("config lookup failed", slog.String("key", key), slog.Any("error", err))
		}
		return ""
	}
	return entry.Value
}

// Get returns the entry for key.
func (s *Service) Get(ctx context.Context, key string) (Entry, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+configColumns+" FROM system_configs WHERE key = $1", key)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

// List returns all entries.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+configColumns+" FROM system_configs ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Create inserts a new key, failing when it already exists.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Entry, error) {
	if _, err := s.Get(ctx, req.Key); err == nil {
		return Entry{}, ErrKeyExists
	} else if !errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}

	row := s.pool.QueryRow(ctx,
		"INSERT INTO system_configs (key, value, description) VALUES ($1, $2, $3) RETURNING "+configColumns,
		req.Key, db.TextOrNull(req.Value), db.TextOrNull(req.Description),
	)
	return scanEntry(row)
}

// Upsert stores a value under key, creating the key when it is missing.
func (s *Service) Upsert(ctx context.Context, key string, req UpsertRequest) (Entry, error) {
	row := s.pool.QueryRow(ctx,
		"INSERT INTO system_configs (key, value, description) VALUES ($1, $2, $3) "+
			"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value RETURNING "+configColumns,
		key, db.TextOrNull(req.Value), db.TextOrNull(req.Description),
	)
	return scanEntry(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry       Entry
		id          pgtype.UUID
		value       pgtype.Text
		description pgtype.Text
	)
	if err := row.Scan(&id, &entry.Key, &value, &description); err != nil {
		return Entry{}, err
	}
	entry.ID = db.UUIDString(id)
	entry.Value = db.TextOrEmpty(value)
	entry.Description = db.TextOrEmpty(description)
	return entry, nil
}
