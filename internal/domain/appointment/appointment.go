package appointment

import (
	"time"

	"github.com/google/uuid"
)

// AllowedDurations are the scheduling increments offered by the calendar UI.
// Updates arriving through the edit form may carry other positive values.
var AllowedDurations = []int{15, 30, 45, 60, 90, 120}

func IsAllowedDuration(mins int) bool {
	for _, d := range AllowedDurations {
		if d == mins {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	PatientID   uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patientId"`
	DoctorID    uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"employeeId"`
	SpecialtyID uuid.UUID `gorm:"column:specialty_id;type:uuid;not null" json:"doctorSpecialtyId"`

	StartTime    time.Time         `gorm:"column:start_time;not null;index" json:"startTime"`
	DurationMins int               `gorm:"column:duration_mins;not null;default:30" json:"durationMins"`
	Reason       string            `gorm:"column:reason;type:text" json:"reason"`
	Status       AppointmentStatus `gorm:"column:status;not null;default:1;index" json:"statusId"`

	// Cancellation tracking
	CancelledAt        *time.Time `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text" json:"cancellationReason,omitempty"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:uuid" json:"cancelledBy,omitempty"`

	CompletedAt *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null" json:"-"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) EndsAt() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMins) * time.Minute)
}

// IsOnDay reports whether the appointment starts on the given calendar day,
// compared in that day's location.
func (a *Appointment) IsOnDay(day time.Time) bool {
	y1, m1, d1 := a.StartTime.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Transition moves the appointment to next if the status table allows it.
func (a *Appointment) Transition(next AppointmentStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	a.Status = next
	if next == StatusCompleted {
		now := time.Now()
		a.CompletedAt = &now
	}
	return nil
}

func (a *Appointment) Cancel(reason string, cancelledBy uuid.UUID) error {
	if !a.Status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &cancelledBy
	return nil
}

type CreateAppointmentCommand struct {
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	SpecialtyID  uuid.UUID
	StartTime    time.Time
	DurationMins int
	Reason       string
	CreatedBy    uuid.UUID
}

type UpdateAppointmentCommand struct {
	PatientID    *uuid.UUID
	DoctorID     *uuid.UUID
	SpecialtyID  *uuid.UUID
	StartTime    *time.Time
	DurationMins *int
	Reason       *string
	UpdatedBy    uuid.UUID
}

type CancelAppointmentCommand struct {
	Reason      string
	CancelledBy uuid.UUID
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *AppointmentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
