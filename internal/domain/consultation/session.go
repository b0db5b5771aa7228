package consultation

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the explicit lifecycle of one consultation session. The
// one-time validation on open is a real state, not a boolean latch, so the
// invariant is visible in the model.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateValidating
	StateActive
	StateFinalized
	StateRolledBack
	StateAborted
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateValidating:
		return "validating"
	case StateActive:
		return "active"
	case StateFinalized:
		return "finalized"
	case StateRolledBack:
		return "rolled_back"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// AbortReason says why a session never became active.
type AbortReason int

const (
	AbortWrongStatus AbortReason = iota + 1
	AbortNotToday
	AbortAlreadyActive
)

func (r AbortReason) String() string {
	switch r {
	case AbortWrongStatus:
		return "wrong_status"
	case AbortNotToday:
		return "not_today"
	case AbortAlreadyActive:
		return "already_active"
	}
	return "unknown"
}

// AbortError carries the abort reason to callers without being a server
// fault; handlers map it to a redirect, not a 500.
type AbortError struct {
	Reason AbortReason
}

func (e *AbortError) Error() string {
	return "consultation session aborted: " + e.Reason.String()
}

// Session binds one active consultation to exactly one appointment.
// Ephemeral: sessions live in process memory only; the backend remains the
// source of truth for the appointment status.
type Session struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	State         SessionState
	OpenedAt      time.Time
}

func NewSession(appointmentID uuid.UUID, at time.Time) *Session {
	return &Session{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		State:         StateValidating,
		OpenedAt:      at,
	}
}

func (s *Session) IsActive() bool {
	return s.State == StateActive
}

// Closed reports whether the session reached a terminal state.
func (s *Session) Closed() bool {
	switch s.State {
	case StateFinalized, StateRolledBack, StateAborted:
		return true
	}
	return false
}
