package appointments

import (
	"strings"
	"time"

	"github.com/mydesiresalon/salon-api/internal/notify"
)

// Appointment is a booked slot with an attendant.
type Appointment struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	AttendantID   string    `json:"attendant_id"`
	Service       string    `json:"service"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// BookingRequest carries everything needed to create an appointment.
type BookingRequest struct {
	UserID        string    `json:"user_id"`
	AttendantID   string    `json:"attendant_id"`
	Service       string    `json:"service"`
	ScheduledTime time.Time `json:"scheduled_time"`

	// ContactMethod selects the notification channel (email, sms, phone,
	// whatsapp). Empty defaults to email. An unsupported method fails the
	// notification, never the booking.
	ContactMethod string `json:"contact_method"`
}

// Validate normalizes the request and checks required fields. The scheduled
// time is checked against now separately by the service.
func (r *BookingRequest) Validate() error {
	r.Service = strings.TrimSpace(r.Service)
	r.UserID = strings.TrimSpace(r.UserID)
	r.AttendantID = strings.TrimSpace(r.AttendantID)
	r.ContactMethod = strings.ToLower(strings.TrimSpace(r.ContactMethod))
	if r.ContactMethod == "" {
		r.ContactMethod = string(notify.ChannelEmail)
	}

	if r.UserID == "" || r.AttendantID == "" {
		return ErrMissingReference
	}
	if r.Service == "" {
		return ErrMissingService
	}
	return nil
}
