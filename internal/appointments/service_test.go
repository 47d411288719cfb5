package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mydesiresalon/salon-api/internal/attendants"
	"github.com/mydesiresalon/salon-api/internal/notify"
	"github.com/mydesiresalon/salon-api/internal/users"
	"github.com/mydesiresalon/salon-api/pkg/logging"
)

type serviceFixture struct {
	service     *Service
	repo        *InMemoryRepository
	notifyStore *notify.MemoryStore
	userID      string
	attendantID string
}

var fixedNow = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := users.NewInMemoryRepository()
	user, err := userRepo.Create(ctx, &users.SignupRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Phone:    "+15550001111",
		Password: "ignored-here",
	}, "hash")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	attendantRepo := attendants.NewInMemoryRepository()
	attendant, err := attendantRepo.Create(ctx, &attendants.CreateRequest{
		Name:  "Bola",
		Email: "bola@salon.example",
	})
	if err != nil {
		t.Fatalf("seed attendant: %v", err)
	}

	store := notify.NewMemoryStore()
	logger := logging.Default()
	dispatcher := notify.NewDispatcher(store, []notify.Channel{
		notify.NewEmailChannel(notify.NewStubEmailSender(logger), ""),
		notify.NewSMSChannel(notify.NewStubSMSSender(logger)),
		notify.PhoneChannel{},
		notify.WhatsappChannel{},
	}, logger, nil)

	repo := NewInMemoryRepository()
	svc := NewService(
		repo,
		NewUserDirectory(userRepo),
		NewAttendantDirectory(attendantRepo),
		dispatcher,
		logger,
		WithAdminEmail("admin@salon.example"),
		WithClock(func() time.Time { return fixedNow }),
	)

	return &serviceFixture{
		service:     svc,
		repo:        repo,
		notifyStore: store,
		userID:      user.ID,
		attendantID: attendant.ID,
	}
}

func (f *serviceFixture) bookingRequest() *BookingRequest {
	return &BookingRequest{
		UserID:        f.userID,
		AttendantID:   f.attendantID,
		Service:       "haircut",
		ScheduledTime: fixedNow.Add(48 * time.Hour),
	}
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	f := newServiceFixture(t)

	appt, err := f.service.Book(context.Background(), f.bookingRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.Status != StatusPending {
		t.Errorf("expected pending, got %s", appt.Status)
	}
	if appt.ID == "" {
		t.Error("expected an id to be assigned")
	}

	records, err := f.notifyStore.ListByUser(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 user notification, got %d", len(records))
	}
}

func TestBookUnknownUser(t *testing.T) {
	f := newServiceFixture(t)
	req := f.bookingRequest()
	req.UserID = "nope"

	if _, err := f.service.Book(context.Background(), req); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestBookUnknownAttendant(t *testing.T) {
	f := newServiceFixture(t)
	req := f.bookingRequest()
	req.AttendantID = "nope"

	if _, err := f.service.Book(context.Background(), req); !errors.Is(err, ErrAttendantNotFound) {
		t.Fatalf("expected ErrAttendantNotFound, got %v", err)
	}
}

func TestBookSlotConflict(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	if _, err := f.service.Book(ctx, f.bookingRequest()); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := f.service.Book(ctx, f.bookingRequest()); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestBookPastTime(t *testing.T) {
	f := newServiceFixture(t)
	req := f.bookingRequest()
	req.ScheduledTime = fixedNow.Add(-time.Hour)

	if _, err := f.service.Book(context.Background(), req); !errors.Is(err, ErrPastScheduledTime) {
		t.Fatalf("expected ErrPastScheduledTime, got %v", err)
	}
}

func TestBookUnsupportedContactMethodStillBooks(t *testing.T) {
	f := newServiceFixture(t)
	req := f.bookingRequest()
	req.ContactMethod = "phone"

	appt, err := f.service.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.Status != StatusPending {
		t.Errorf("expected pending, got %s", appt.Status)
	}
	// The record is still persisted even though delivery failed closed.
	records, _ := f.notifyStore.ListByUser(context.Background(), f.userID)
	if len(records) != 1 {
		t.Fatalf("expected 1 notification record, got %d", len(records))
	}
}

func TestConfirmPending(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	appt, err := f.service.Book(ctx, f.bookingRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	updated, err := f.service.Confirm(ctx, appt.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", updated.Status)
	}
}

func TestRejectFreesSlotForRebooking(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	appt, err := f.service.Book(ctx, f.bookingRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.service.Reject(ctx, appt.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.service.Book(ctx, f.bookingRequest()); err != nil {
		t.Fatalf("rebook after reject: %v", err)
	}
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	appt, err := f.service.Book(ctx, f.bookingRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if _, err := f.service.Complete(ctx, appt.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending -> completed, got %v", err)
	}
	if _, err := f.service.Confirm(ctx, appt.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	updated, err := f.service.Complete(ctx, appt.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}
	// Completed is terminal.
	if _, err := f.service.Confirm(ctx, appt.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from completed, got %v", err)
	}
}

func TestTransitionUnknownAppointment(t *testing.T) {
	f := newServiceFixture(t)
	if _, err := f.service.Confirm(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelPending(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	appt, err := f.service.Book(ctx, f.bookingRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := f.service.Cancel(ctx, appt.ID, f.userID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.service.Get(ctx, appt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected appointment to be gone, got %v", err)
	}
	// The freed slot can be booked again.
	if _, err := f.service.Book(ctx, f.bookingRequest()); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestCancelNonPending(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	appt, err := f.service.Book(ctx, f.bookingRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.service.Confirm(ctx, appt.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := f.service.Cancel(ctx, appt.ID, f.userID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCancelWrongUser(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	appt, err := f.service.Book(ctx, f.bookingRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := f.service.Cancel(ctx, appt.ID, "someone-else"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign cancel, got %v", err)
	}
	// Still there.
	if _, err := f.service.Get(ctx, appt.ID); err != nil {
		t.Fatalf("appointment should survive foreign cancel: %v", err)
	}
}
