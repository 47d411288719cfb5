package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotificationNotFound is returned when a notification id is unknown.
var ErrNotificationNotFound = errors.New("notification not found")

// Notification is the durable record that a message was requested for a user.
// It exists independently of whether delivery succeeded.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists notification records.
type Store interface {
	Insert(ctx context.Context, userID, message string) (*Notification, error)
	ListByUser(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// MemoryStore keeps notifications in a map, for tests and DB-less dev.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Notification)}
}

func (s *MemoryStore) Insert(ctx context.Context, userID, message string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.records[n.ID] = n
	s.mu.Unlock()

	snapshot := *n
	return &snapshot, nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range s.records {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.records[id]
	if !ok {
		return ErrNotificationNotFound
	}
	n.Read = true
	return nil
}

type storeQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists notifications in the relational database.
type PostgresStore struct {
	pool storeQuerier
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("notify: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func newPostgresStoreWithQuerier(q storeQuerier) *PostgresStore {
	if q == nil {
		panic("notify: querier required")
	}
	return &PostgresStore{pool: q}
}

func (s *PostgresStore) Insert(ctx context.Context, userID, message string) (*Notification, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO notifications (id, user_id, message, is_read)
		VALUES ($1, $2, $3, false)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := s.pool.QueryRow(ctx, query, id, userID, message).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("notify: insert failed: %w", err)
	}
	return &Notification{
		ID:        id,
		UserID:    userID,
		Message:   message,
		CreatedAt: createdAt,
	}, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Notification, error) {
	query := `
		SELECT id, user_id, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("notify: list failed: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan failed: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notify: mark read failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
