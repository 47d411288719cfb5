package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ChannelKind names a delivery channel selected by the booking contact method.
type ChannelKind string

const (
	ChannelEmail    ChannelKind = "email"
	ChannelSMS      ChannelKind = "sms"
	ChannelPhone    ChannelKind = "phone"
	ChannelWhatsapp ChannelKind = "whatsapp"
)

// ErrChannelUnsupported is returned by channels that exist in the contact
// method enum but have no working delivery path. The dispatcher reports the
// failure; it never propagates into the booking result.
var ErrChannelUnsupported = errors.New("notify: channel not supported")

// ErrMissingAddress is returned when the recipient lacks the address the
// channel needs (email address, phone number).
var ErrMissingAddress = errors.New("notify: recipient address missing")

// ParseChannel normalizes a contact method string. Unknown methods map to a
// kind that no registered channel serves, so dispatch fails closed.
func ParseChannel(raw string) ChannelKind {
	return ChannelKind(strings.ToLower(strings.TrimSpace(raw)))
}

// Recipient identifies who a notification is for and how to reach them.
type Recipient struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

// Channel delivers a message to a recipient over one transport.
type Channel interface {
	Kind() ChannelKind
	Deliver(ctx context.Context, to Recipient, message string) error
}

// EmailChannel delivers through an EmailSender.
type EmailChannel struct {
	sender  EmailSender
	subject string
}

// NewEmailChannel wraps an email sender. Subject defaults to the salon name.
func NewEmailChannel(sender EmailSender, subject string) *EmailChannel {
	if subject == "" {
		subject = "My Desire Salon"
	}
	return &EmailChannel{sender: sender, subject: subject}
}

func (c *EmailChannel) Kind() ChannelKind { return ChannelEmail }

func (c *EmailChannel) Deliver(ctx context.Context, to Recipient, message string) error {
	if c.sender == nil {
		return fmt.Errorf("%w: email", ErrChannelUnsupported)
	}
	if to.Email == "" {
		return fmt.Errorf("%w: email", ErrMissingAddress)
	}
	return c.sender.Send(ctx, EmailMessage{
		To:      to.Email,
		ToName:  to.Name,
		Subject: c.subject,
		Body:    message,
	})
}

// SMSChannel delivers through an SMSSender.
type SMSChannel struct {
	sender SMSSender
}

func NewSMSChannel(sender SMSSender) *SMSChannel {
	return &SMSChannel{sender: sender}
}

func (c *SMSChannel) Kind() ChannelKind { return ChannelSMS }

func (c *SMSChannel) Deliver(ctx context.Context, to Recipient, message string) error {
	if c.sender == nil {
		return fmt.Errorf("%w: sms", ErrChannelUnsupported)
	}
	if to.Phone == "" {
		return fmt.Errorf("%w: sms", ErrMissingAddress)
	}
	return c.sender.SendSMS(ctx, to.Phone, message)
}

// PhoneChannel is declared in the contact method enum but has no call
// integration. It fails closed with a typed error.
type PhoneChannel struct{}

func (PhoneChannel) Kind() ChannelKind { return ChannelPhone }

func (PhoneChannel) Deliver(context.Context, Recipient, string) error {
	return fmt.Errorf("%w: phone", ErrChannelUnsupported)
}

// WhatsappChannel is declared in the contact method enum but has no
// integration. It fails closed with a typed error.
type WhatsappChannel struct{}

func (WhatsappChannel) Kind() ChannelKind { return ChannelWhatsapp }

func (WhatsappChannel) Deliver(context.Context, Recipient, string) error {
	return fmt.Errorf("%w: whatsapp", ErrChannelUnsupported)
}

var (
	_ Channel = (*EmailChannel)(nil)
	_ Channel = (*SMSChannel)(nil)
	_ Channel = PhoneChannel{}
	_ Channel = WhatsappChannel{}
)
