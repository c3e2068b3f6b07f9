// Package professional is the expert directory: CRUD plus the keyword-based
// relevant-professional lookup used by the conversation pipeline.
package professional

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenteagro/agenteagro/internal/db"
)

// ErrNotFound is returned when a professional id does not exist.
var ErrNotFound = errors.New("professional not found")

// MaxRelevant caps how many directory entries the pipeline suggests.
const MaxRelevant = 3

// veterinarianKeywords and agronomistKeywords drive the type filter of
// FindRelevant. This vocabulary is independent from the problem-category one.
var (
	veterinarianKeywords = []string{"veterinário", "veterinario", "animal", "boi", "vaca"}
	agronomistKeywords   = []string{"agrônomo", "agronomo", "planta", "lavoura", "soja", "milho"}
)

// DetectProfessionType maps free text to a directory entry type, or "" when
// no filter applies (all types eligible). Veterinary keywords take precedence.
func DetectProfessionType(text string) string {
	lower := strings.ToLower(text)
	for _, k := range veterinarianKeywords {
		if strings.Contains(lower, k) {
			return TypeVeterinarian
		}
	}
	for _, k := range agronomistKeywords {
		if strings.Contains(lower, k) {
			return TypeAgronomist
		}
	}
	return ""
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
		logger: log.With(slog.String("service", "professional")),
	}
}

const professionalColumns = "id, name, type, state, city, phone, email, specialties, created_at, updated_at"

// FindRelevant returns up to MaxRelevant entries filtered by state (when
// known) and by the profession type implied by the text (when any). Results
// come back in store order; no further ranking is applied.
func (s *Service) FindRelevant(ctx context.Context, state, text string) ([]Professional, error) {
	return s.find(ctx, state, DetectProfessionType(text), 0, MaxRelevant)
}

// List returns directory entries with optional state/type filters.
func (s *Service) List(ctx context.Context, state, profType string, skip, limit int) ([]Professional, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.find(ctx, state, profType, skip, limit)
}

func (s *Service) find(ctx context.Context, state, profType string, skip, limit int) ([]Professional, error) {
	query := "SELECT " + professionalColumns + " FROM professionals"
	var (
		conds []string
		args  []any
	)
	if state != "" {
		args = append(args, state)
		conds = append(conds, fmt.Sprintf("state = $%d", len(args)))
	}
	if profType != "" {
		args = append(args, profType)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, skip)
	query += fmt.Sprintf(" ORDER BY created_at OFFSET $%d", len(args))
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a directory entry.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Professional, error) {
	row := s.pool.QueryRow(ctx,
		"INSERT INTO professionals (name, type, state, city, phone, email, specialties) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "+professionalColumns,
		req.Name, req.Type, strings.ToUpper(req.State), req.City,
		db.TextOrNull(req.Phone), db.TextOrNull(req.Email), db.TextOrNull(req.Specialties),
	)
	return scanProfessional(row)
}

// Get returns a directory entry by id.
func (s *Service) Get(ctx context.Context, id string) (Professional, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Professional{}, err
	}
	row := s.pool.QueryRow(ctx,
		"SELECT "+professionalColumns+" FROM professionals WHERE id = $1", pgID,
	)
	p, err := scanProfessional(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Professional{}, ErrNotFound
	}
	return p, err
}

// Update applies non-empty fields of the request to the stored entry.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Professional, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Professional{}, err
	}
	if req.Name != "" {
		current.Name = req.Name
	}
	if req.Type != "" {
		current.Type = req.Type
	}
	if req.State != "" {
		current.State = strings.ToUpper(req.State)
	}
	if req.City != "" {
		current.City = req.City
	}
	if req.Phone != "" {
		current.Phone = req.Phone
	}
	if req.Email != "" {
		current.Email = req.Email
	}
	if req.Specialties != "" {
		current.Specialties = req.Specialties
	}

	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Professional{}, err
	}
	row := s.pool.QueryRow(ctx,
		"UPDATE professionals SET name = $2, type = $3, state = $4, city = $5, phone = $6, email = $7, specialties = $8, updated_at = now() WHERE id = $1 RETURNING "+professionalColumns,
		pgID, current.Name, current.Type, current.State, current.City,
		db.TextOrNull(current.Phone), db.TextOrNull(current.Email), db.TextOrNull(current.Specialties),
	)
	return scanProfessional(row)
}

// Delete removes a directory entry, returning the deleted record.
func (s *Service) Delete(ctx context.Context, id string) (Professional, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Professional{}, err
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Professional{}, err
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM professionals WHERE id = $1", pgID); err != nil {
		return Professional{}, err
	}
	return p, nil
}

// FindNearby backs the geo lookup: the directory has no coordinates, so this
// filters by profession only and reports distance as unknown.
func (s *Service) FindNearby(ctx context.Context, profession string) ([]NearbyEntry, error) {
	profType := ""
	switch lower := strings.ToLower(profession); {
	case strings.Contains(lower, "vet"):
		profType = TypeVeterinarian
	case strings.Contains(lower, "agro"):
		profType = TypeAgronomist
	case strings.Contains(lower, "tec"), strings.Contains(lower, "téc"):
		profType = TypeTechnician
	}

	matches, err := s.find(ctx, "", profType, 0, 100)
	if err != nil {
		return nil, err
	}
	out := make([]NearbyEntry, 0, len(matches))
	for _, p := range matches {
		contact := p.Phone
		if contact == "" {
			contact = p.Email
		}
		if contact == "" {
			contact = "N/A"
		}
		out = append(out, NearbyEntry{
			Name:        p.Name,
			Address:     fmt.Sprintf("%s - %s", p.City, p.State),
			Distance:    "N/A",
			Contact:     contact,
			Specialties: p.Specialties,
		})
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfessional(row rowScanner) (Professional, error) {
	var (
		p           Professional
		id          pgtype.UUID
		phone       pgtype.Text
		email       pgtype.Text
		specialties pgtype.Text
	)
	if err := row.Scan(&id, &p.Name, &p.Type, &p.State, &p.City, &phone, &email, &specialties, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Professional{}, err
	}
	p.ID = db.UUIDString(id)
	p.Phone = db.TextOrEmpty(phone)
	p.Email = db.TextOrEmpty(email)
	p.Specialties = db.TextOrEmpty(specialties)
	return p, nil
}
