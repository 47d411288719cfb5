package appointments

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines durable storage for appointments.
//
// Create must be atomic with respect to the slot-uniqueness invariant: two
// concurrent creates for the same (attendant, time) may not both succeed.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]Appointment, error)
	ListByAttendant(ctx context.Context, attendantID string) ([]Appointment, error)
	SlotTaken(ctx context.Context, attendantID string, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps appointments in a map, for tests and DB-less dev.
// One mutex serializes the check-then-insert so the slot invariant holds
// under concurrent Create calls.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts map[string]*Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appts: make(map[string]*Appointment)}
}

// Create inserts the appointment unless its slot is occupied.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.appts {
		if existing.AttendantID == appt.AttendantID &&
			existing.ScheduledTime.Equal(appt.ScheduledTime) &&
			existing.Status.Occupies() {
			return ErrSlotConflict
		}
	}

	stored := *appt
	r.appts[appt.ID] = &stored
	return nil
}

// GetByID returns a snapshot of the appointment.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	snapshot := *appt
	return &snapshot, nil
}

// ListByUser returns the user's appointments ordered by scheduled time.
func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.UserID == userID }), nil
}

// ListByAttendant returns the attendant's appointments ordered by scheduled time.
func (r *InMemoryRepository) ListByAttendant(ctx context.Context, attendantID string) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.AttendantID == attendantID }), nil
}

// SlotTaken reports whether an occupying appointment holds the slot.
func (r *InMemoryRepository) SlotTaken(ctx context.Context, attendantID string, at time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, appt := range r.appts {
		if appt.AttendantID == attendantID && appt.ScheduledTime.Equal(at) && appt.Status.Occupies() {
			return true, nil
		}
	}
	return false, nil
}

// UpdateStatus persists the new status and returns the updated snapshot.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	appt.Status = status
	snapshot := *appt
	return &snapshot, nil
}

// Delete removes the appointment permanently.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[id]; !ok {
		return ErrNotFound
	}
	delete(r.appts, id)
	return nil
}

func (r *InMemoryRepository) list(match func(*Appointment) bool) []Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, appt := range r.appts {
		if match(appt) {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out
}

var _ Repository = (*InMemoryRepository)(nil)
