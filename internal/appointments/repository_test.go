package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestAppointment(attendantID string, at time.Time) *Appointment {
	return &Appointment{
		ID:            uuid.NewString(),
		UserID:        uuid.NewString(),
		AttendantID:   attendantID,
		Service:       "haircut",
		ScheduledTime: at,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestInMemoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	at := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)

	appt := newTestAppointment("att-1", at)
	if err := repo.Create(ctx, appt); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("expected pending, got %s", got.Status)
	}
	if !got.ScheduledTime.Equal(at) {
		t.Errorf("expected %v, got %v", at, got.ScheduledTime)
	}
}

func TestInMemoryGetNotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemorySlotConflict(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	at := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)

	if err := repo.Create(ctx, newTestAppointment("att-1", at)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := repo.Create(ctx, newTestAppointment("att-1", at)); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
	// Another attendant at the same time is fine.
	if err := repo.Create(ctx, newTestAppointment("att-2", at)); err != nil {
		t.Fatalf("other attendant: %v", err)
	}
	// The same attendant at another time is fine.
	if err := repo.Create(ctx, newTestAppointment("att-1", at.Add(time.Hour))); err != nil {
		t.Fatalf("other time: %v", err)
	}
}

func TestInMemoryRejectedFreesSlot(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	at := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)

	first := newTestAppointment("att-1", at)
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, first.ID, StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	taken, err := repo.SlotTaken(ctx, "att-1", at)
	if err != nil {
		t.Fatalf("slot check: %v", err)
	}
	if taken {
		t.Fatal("rejected appointment should free its slot")
	}
	if err := repo.Create(ctx, newTestAppointment("att-1", at)); err != nil {
		t.Fatalf("rebook after reject: %v", err)
	}
}

func TestInMemoryConcurrentCreateSingleWinner(t *testing.T) {
	repo := NewInMemoryRepository()
	at := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)

	const n = 32
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.Create(context.Background(), newTestAppointment("att-1", at))
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d (%d conflicts)", wins, conflicts)
	}
}

func TestInMemoryUpdateStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	appt := newTestAppointment("att-1", time.Now().Add(24*time.Hour))
	if err := repo.Create(ctx, appt); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, appt.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", updated.Status)
	}

	if _, err := repo.UpdateStatus(ctx, "missing", StatusConfirmed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	appt := newTestAppointment("att-1", time.Now().Add(24*time.Hour))
	if err := repo.Create(ctx, appt); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, appt.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, appt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, appt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestInMemoryListOrdering(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)

	userID := uuid.NewString()
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		appt := newTestAppointment("att-"+offset.String(), base.Add(offset))
		appt.UserID = userID
		if err := repo.Create(ctx, appt); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	appts, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(appts) != 3 {
		t.Fatalf("expected 3 appointments, got %d", len(appts))
	}
	for i := 1; i < len(appts); i++ {
		if appts[i].ScheduledTime.Before(appts[i-1].ScheduledTime) {
			t.Fatal("appointments not ordered by scheduled time")
		}
	}
}
