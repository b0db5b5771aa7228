package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// ListForDoctorDay returns a doctor's appointments on the calendar day
	// containing day, in day's location. Backs the Today's Appointments view.
	ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*Appointment, error)

	// ListInRange returns every appointment starting in [from, to),
	// optionally narrowed to one doctor. Unpaged: the calendar view must
	// render the whole window or it shows free slots that are not free.
	ListInRange(ctx context.Context, doctorID *uuid.UUID, from, to time.Time) ([]*Appointment, error)

	// ListOverlapping returns a doctor's non-terminal appointments whose
	// interval intersects [start, end), excluding excludeID when non-nil.
	// Cancelled and expired bookings never block a slot.
	ListOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*Appointment, error)

	// UpdateStatus persists only the status and the transition bookkeeping
	// columns of the appointment.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// ExpireOverdue moves scheduled appointments whose slot fully elapsed
	// before cutoff into the expired status; returns how many were swept.
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}
