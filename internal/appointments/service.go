package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mydesiresalon/salon-api/internal/notify"
	"github.com/mydesiresalon/salon-api/internal/observability/metrics"
	"github.com/mydesiresalon/salon-api/pkg/logging"
)

var tracer = otel.Tracer("salon.internal.appointments")

// Service implements the appointment lifecycle: booking, status transitions,
// cancellation, and the best-effort notifications that accompany them.
//
// Notifications never fail an operation. Once the appointment row is written
// the booking has happened; delivery problems are logged and counted only.
type Service struct {
	repo       Repository
	users      UserDirectory
	attendants AttendantDirectory
	dispatcher *notify.Dispatcher
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics

	adminEmail string

	// now is injected so tests can pin the clock.
	now func() time.Time
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithMetrics attaches booking metrics to the service.
func WithMetrics(m *metrics.BookingMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithAdminEmail sets the address that receives a copy of booking alerts.
func WithAdminEmail(email string) ServiceOption {
	return func(s *Service) { s.adminEmail = email }
}

// WithClock overrides the service clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates the appointment service.
func NewService(repo Repository, users UserDirectory, attendants AttendantDirectory, dispatcher *notify.Dispatcher, logger *logging.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:       repo,
		users:      users,
		attendants: attendants,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book validates the request, checks the slot, and creates a pending
// appointment. The slot check here is advisory; the repository enforces the
// uniqueness invariant atomically, so a concurrent double-book still loses.
func (s *Service) Book(ctx context.Context, req *BookingRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.Book",
		trace.WithAttributes(
			attribute.String("user.id", req.UserID),
			attribute.String("attendant.id", req.AttendantID),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		s.observeBooking("invalid")
		return nil, err
	}
	if req.ScheduledTime.Before(s.now()) {
		s.observeBooking("invalid")
		return nil, ErrPastScheduledTime
	}

	recipient, err := s.users.Lookup(ctx, req.UserID)
	if err != nil {
		s.observeBooking("user_not_found")
		return nil, err
	}

	ok, err := s.attendants.Exists(ctx, req.AttendantID)
	if err != nil {
		s.observeBooking("error")
		return nil, fmt.Errorf("appointments: attendant lookup failed: %w", err)
	}
	if !ok {
		s.observeBooking("attendant_not_found")
		return nil, ErrAttendantNotFound
	}

	taken, err := s.repo.SlotTaken(ctx, req.AttendantID, req.ScheduledTime)
	if err != nil {
		s.observeBooking("error")
		return nil, fmt.Errorf("appointments: slot check failed: %w", err)
	}
	if taken {
		s.observeBooking("slot_conflict")
		return nil, ErrSlotConflict
	}

	appt := &Appointment{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		AttendantID:   req.AttendantID,
		Service:       req.Service,
		ScheduledTime: req.ScheduledTime,
		Status:        StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotConflict) {
			s.observeBooking("slot_conflict")
			return nil, ErrSlotConflict
		}
		s.observeBooking("error")
		return nil, fmt.Errorf("appointments: create failed: %w", err)
	}
	s.observeBooking("created")

	s.notifyBooking(ctx, appt, recipient, notify.ChannelKind(req.ContactMethod))
	return appt, nil
}

// Confirm moves a pending appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id string) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed,
		"Good news! Your appointment at My Desire Salon has been confirmed.")
}

// Reject moves a pending appointment to rejected, freeing its slot.
func (s *Service) Reject(ctx context.Context, id string) (*Appointment, error) {
	return s.transition(ctx, id, StatusRejected,
		"Unfortunately your appointment at My Desire Salon could not be accommodated.")
}

// Complete moves a confirmed appointment to completed.
func (s *Service) Complete(ctx context.Context, id string) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted,
		"Thanks for visiting My Desire Salon! We hope to see you again soon.")
}

func (s *Service) transition(ctx context.Context, id string, to Status, message string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.Transition",
		trace.WithAttributes(
			attribute.String("appointment.id", id),
			attribute.String("status.to", string(to)),
		),
	)
	defer span.End()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		s.observeTransition(current.Status, to, "invalid")
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, to)
	if err != nil {
		s.observeTransition(current.Status, to, "error")
		return nil, fmt.Errorf("appointments: status update failed: %w", err)
	}
	s.observeTransition(current.Status, to, "ok")
	s.logger.Info("appointment status changed",
		"appointment_id", id,
		"from", current.Status,
		"to", to,
	)

	s.notifyUser(ctx, updated.UserID, message)
	return updated, nil
}

// Cancel deletes a pending appointment. Only the booking user may cancel
// their own appointment; pass an empty requesterID to skip the ownership
// check (internal and admin callers).
func (s *Service) Cancel(ctx context.Context, id, requesterID string) error {
	ctx, span := tracer.Start(ctx, "appointments.Cancel",
		trace.WithAttributes(attribute.String("appointment.id", id)),
	)
	defer span.End()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.observeCancellation("not_found")
		return err
	}
	if requesterID != "" && appt.UserID != requesterID {
		s.observeCancellation("forbidden")
		return ErrNotFound
	}
	if appt.Status != StatusPending {
		s.observeCancellation("invalid_state")
		return fmt.Errorf("%w: cannot cancel a %s appointment", ErrInvalidState, appt.Status)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.observeCancellation("error")
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	s.observeCancellation("ok")
	s.logger.Info("appointment cancelled", "appointment_id", id, "user_id", appt.UserID)

	s.notifyUser(ctx, appt.UserID, "Your appointment at My Desire Salon has been cancelled.")
	return nil
}

// Get returns one appointment by id.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByUser returns a user's appointments ordered by scheduled time.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListByAttendant returns an attendant's appointments ordered by scheduled time.
func (s *Service) ListByAttendant(ctx context.Context, attendantID string) ([]Appointment, error) {
	return s.repo.ListByAttendant(ctx, attendantID)
}

func (s *Service) notifyBooking(ctx context.Context, appt *Appointment, recipient notify.Recipient, channel notify.ChannelKind) {
	if s.dispatcher == nil {
		return
	}

	message := fmt.Sprintf(
		"Hi %s, your %s appointment on %s is booked and awaiting confirmation.",
		recipient.Name, appt.Service, appt.ScheduledTime.Format("Mon Jan 2 at 3:04 PM"),
	)
	if result := s.dispatcher.Dispatch(ctx, recipient, message, channel); result.Err != nil {
		s.logger.Warn("booking notification failed",
			"appointment_id", appt.ID,
			"channel", channel,
			"error", result.Err,
		)
	}

	if s.adminEmail == "" {
		return
	}
	admin := notify.Recipient{Name: "Salon Admin", Email: s.adminEmail}
	adminMsg := fmt.Sprintf(
		"New booking: %s with attendant %s on %s (user %s).",
		appt.Service, appt.AttendantID, appt.ScheduledTime.Format(time.RFC1123), appt.UserID,
	)
	if result := s.dispatcher.Dispatch(ctx, admin, adminMsg, notify.ChannelEmail); result.Err != nil {
		s.logger.Warn("admin booking alert failed", "appointment_id", appt.ID, "error", result.Err)
	}
}

// notifyUser sends a lifecycle update over email, the channel we always have
// an address for. The booking contact method is not stored on the appointment.
func (s *Service) notifyUser(ctx context.Context, userID, message string) {
	if s.dispatcher == nil {
		return
	}
	recipient, err := s.users.Lookup(ctx, userID)
	if err != nil {
		s.logger.Warn("notification recipient lookup failed", "user_id", userID, "error", err)
		return
	}
	if result := s.dispatcher.Dispatch(ctx, recipient, message, notify.ChannelEmail); result.Err != nil {
		s.logger.Warn("lifecycle notification failed", "user_id", userID, "error", result.Err)
	}
}

func (s *Service) observeBooking(outcome string) {
	s.metrics.ObserveBooking(outcome)
}

func (s *Service) observeTransition(from, to Status, outcome string) {
	s.metrics.ObserveTransition(string(from), string(to), outcome)
}

func (s *Service) observeCancellation(outcome string) {
	s.metrics.ObserveCancellation(outcome)
}
