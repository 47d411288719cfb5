// Package attendants manages the salon staff that appointments are booked
// with. Attendants are read-only from the booking core's perspective.
package attendants

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when an attendant does not exist.
	ErrNotFound = errors.New("attendant not found")

	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("attendant email already registered")

	// ErrInvalidAttendant is returned when required fields are missing.
	ErrInvalidAttendant = errors.New("name and email are required")
)

// Attendant is a member of the salon staff.
type Attendant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the request body for registering an attendant.
type CreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate normalizes and checks the request.
func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Name == "" || r.Email == "" {
		return ErrInvalidAttendant
	}
	return nil
}

// Repository defines the interface for attendant storage.
type Repository interface {
	Create(ctx context.Context, req *CreateRequest) (*Attendant, error)
	FindByID(ctx context.Context, id string) (*Attendant, error)
	List(ctx context.Context) ([]Attendant, error)
}

// InMemoryRepository stores attendants in a map, for tests and DB-less dev.
type InMemoryRepository struct {
	mu         sync.RWMutex
	attendants map[string]*Attendant
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{attendants: make(map[string]*Attendant)}
}

func (r *InMemoryRepository) Create(ctx context.Context, req *CreateRequest) (*Attendant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.attendants {
		if a.Email == req.Email {
			return nil, ErrEmailTaken
		}
	}

	attendant := &Attendant{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	r.attendants[attendant.ID] = attendant

	snapshot := *attendant
	return &snapshot, nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (*Attendant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.attendants[id]
	if !ok {
		return nil, ErrNotFound
	}
	snapshot := *a
	return &snapshot, nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Attendant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Attendant, 0, len(r.attendants))
	for _, a := range r.attendants {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

const uniqueViolation = "23505"

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores attendants in the relational database.
type PostgresRepository struct {
	pool querier
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("attendants: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q querier) *PostgresRepository {
	if q == nil {
		panic("attendants: querier required")
	}
	return &PostgresRepository{pool: q}
}

func (r *PostgresRepository) Create(ctx context.Context, req *CreateRequest) (*Attendant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	query := `
		INSERT INTO salon_attendants (id, name, email)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query, id, req.Name, req.Email).Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("attendants: insert failed: %w", err)
	}

	return &Attendant{ID: id, Name: req.Name, Email: req.Email, CreatedAt: createdAt}, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Attendant, error) {
	query := `
		SELECT id, name, email, created_at
		FROM salon_attendants
		WHERE id = $1
	`
	var a Attendant
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("attendants: select failed: %w", err)
	}
	return &a, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Attendant, error) {
	query := `
		SELECT id, name, email, created_at
		FROM salon_attendants
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("attendants: list failed: %w", err)
	}
	defer rows.Close()

	var out []Attendant
	for rows.Next() {
		var a Attendant
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("attendants: scan failed: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var (
	_ Repository = (*InMemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
