package appointments

import "errors"

var (
	// ErrNotFound is returned when no appointment exists with the given id.
	ErrNotFound = errors.New("appointment not found")

	// ErrUserNotFound is returned when the booking user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrAttendantNotFound is returned when the booking attendant does not exist.
	ErrAttendantNotFound = errors.New("attendant not found")

	// ErrSlotConflict is returned when the attendant already has an occupying
	// appointment at the requested time.
	ErrSlotConflict = errors.New("time slot is already booked")

	// ErrInvalidTransition is returned when the state machine does not permit
	// the requested status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState is returned when an operation is not permitted in the
	// appointment's current status, e.g. cancelling a confirmed appointment.
	ErrInvalidState = errors.New("operation not permitted in current status")

	// ErrUnknownStatus is returned when a status string is outside the enum.
	ErrUnknownStatus = errors.New("unknown appointment status")

	// ErrPastScheduledTime is returned when a booking targets a time that has
	// already passed.
	ErrPastScheduledTime = errors.New("scheduled time is in the past")

	// ErrMissingService is returned when the booking has no service label.
	ErrMissingService = errors.New("service is required")

	// ErrMissingReference is returned when user or attendant id is missing.
	ErrMissingReference = errors.New("user_id and attendant_id are required")
)
