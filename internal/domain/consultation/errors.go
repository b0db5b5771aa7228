package consultation

import "errors"

var (
	ErrNoActiveSession  = errors.New("no active consultation session")
	ErrSessionNotActive = errors.New("consultation session is not active")
	ErrSessionMismatch  = errors.New("session does not belong to this appointment")
	ErrRollbackRejected = errors.New("status rollback was rejected by the backend")
)
