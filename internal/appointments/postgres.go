package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index on (salon_attendant_id, appointment_time) WHERE status <> 'rejected'.
// The index is what closes the check-then-insert race at the storage level.
const uniqueViolation = "23505"

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q querier) *PostgresRepository {
	if q == nil {
		panic("appointments: querier required")
	}
	return &PostgresRepository{pool: q}
}

// Create inserts a new row. A unique violation on the slot index surfaces as
// ErrSlotConflict, so concurrent bookings for one slot cannot both succeed.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (id, user_id, salon_attendant_id, service, appointment_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query,
		appt.ID,
		appt.UserID,
		appt.AttendantID,
		appt.Service,
		appt.ScheduledTime,
		string(appt.Status),
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotConflict
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	appt.CreatedAt = createdAt
	return nil
}

// GetByID fetches a single appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `
		SELECT id, user_id, salon_attendant_id, service, appointment_time, status, created_at
		FROM appointments
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// ListByUser returns a user's appointments ordered by scheduled time.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	query := `
		SELECT id, user_id, salon_attendant_id, service, appointment_time, status, created_at
		FROM appointments
		WHERE user_id = $1
		ORDER BY appointment_time
	`
	return r.listQuery(ctx, query, userID)
}

// ListByAttendant returns an attendant's appointments ordered by scheduled time.
func (r *PostgresRepository) ListByAttendant(ctx context.Context, attendantID string) ([]Appointment, error) {
	query := `
		SELECT id, user_id, salon_attendant_id, service, appointment_time, status, created_at
		FROM appointments
		WHERE salon_attendant_id = $1
		ORDER BY appointment_time
	`
	return r.listQuery(ctx, query, attendantID)
}

// SlotTaken reports whether a non-rejected appointment holds the slot.
func (r *PostgresRepository) SlotTaken(ctx context.Context, attendantID string, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE salon_attendant_id = $1 AND appointment_time = $2 AND status <> 'rejected'
		)
	`
	var taken bool
	if err := r.pool.QueryRow(ctx, query, attendantID, at).Scan(&taken); err != nil {
		return false, fmt.Errorf("appointments: slot check failed: %w", err)
	}
	return taken, nil
}

// UpdateStatus persists the new status in one statement and returns the
// updated snapshot. A failed update leaves the row untouched.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
		RETURNING id, user_id, salon_attendant_id, service, appointment_time, status, created_at
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id, string(status)))
}

// Delete removes the appointment permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var status string
	err := row.Scan(
		&appt.ID,
		&appt.UserID,
		&appt.AttendantID,
		&appt.Service,
		&appt.ScheduledTime,
		&status,
		&appt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	appt.Status = Status(status)
	return &appt, nil
}

func (r *PostgresRepository) listQuery(ctx context.Context, query string, arg any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var appt Appointment
		var status string
		if err := rows.Scan(
			&appt.ID,
			&appt.UserID,
			&appt.AttendantID,
			&appt.Service,
			&appt.ScheduledTime,
			&status,
			&appt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		appt.Status = Status(status)
		out = append(out, appt)
	}
	return out, rows.Err()
}

var _ Repository = (*PostgresRepository)(nil)
