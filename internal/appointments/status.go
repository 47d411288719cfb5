package appointments

import (
	"fmt"
	"strings"
)

// Status is the closed set of appointment lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// transitions is the single source of truth for the lifecycle state machine:
//
//	pending   -> confirmed, rejected
//	confirmed -> completed
//	rejected  -> (terminal)
//	completed -> (terminal)
var transitions = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusRejected: true},
	StatusConfirmed: {StatusCompleted: true},
	StatusRejected:  {},
	StatusCompleted: {},
}

// ParseStatus normalizes and validates a raw status string against the
// closed enum.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// Valid reports whether s is a member of the enum.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine permits s -> next.
// No-op transitions are not permitted.
func (s Status) CanTransitionTo(next Status) bool {
	return transitions[s][next]
}

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Occupies reports whether an appointment in this status counts toward
// slot-conflict checks. A rejected appointment frees its slot.
func (s Status) Occupies() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCompleted
}
