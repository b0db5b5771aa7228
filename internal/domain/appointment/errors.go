package appointment

import "errors"

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrAppointmentNotEditable  = errors.New("appointment can no longer be edited in its current status")
	ErrScheduledInPast         = errors.New("cannot schedule appointment in the past")
	ErrInvalidDuration         = errors.New("appointment duration must be one of the allowed increments")
	ErrInvalidStatus           = errors.New("unknown appointment status code")
)
