package appointments

import (
	"context"
	"errors"

	"github.com/mydesiresalon/salon-api/internal/attendants"
	"github.com/mydesiresalon/salon-api/internal/notify"
	"github.com/mydesiresalon/salon-api/internal/users"
)

// UserDirectory resolves booking participants to notification recipients.
// The booking flow only needs existence plus contact details, so the
// dependency on the users package stays behind this narrow interface.
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (notify.Recipient, error)
}

// AttendantDirectory confirms an attendant exists before booking against them.
type AttendantDirectory interface {
	Exists(ctx context.Context, attendantID string) (bool, error)
}

type userDirectory struct {
	repo users.Repository
}

// NewUserDirectory adapts a users repository into a UserDirectory.
func NewUserDirectory(repo users.Repository) UserDirectory {
	return &userDirectory{repo: repo}
}

func (d *userDirectory) Lookup(ctx context.Context, userID string) (notify.Recipient, error) {
	u, err := d.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return notify.Recipient{}, ErrUserNotFound
		}
		return notify.Recipient{}, err
	}
	return notify.Recipient{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
	}, nil
}

type attendantDirectory struct {
	repo attendants.Repository
}

// NewAttendantDirectory adapts an attendants repository into an AttendantDirectory.
func NewAttendantDirectory(repo attendants.Repository) AttendantDirectory {
	return &attendantDirectory{repo: repo}
}

func (d *attendantDirectory) Exists(ctx context.Context, attendantID string) (bool, error) {
	_, err := d.repo.FindByID(ctx, attendantID)
	if err != nil {
		if errors.Is(err, attendants.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
