package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinicdesk/internal/domain/appointment"
	"clinicdesk/internal/domain/patient"
	"clinicdesk/internal/schedule"
	"clinicdesk/pkg/metrics"
)

type AppointmentService struct {
	repo        appointment.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		collector:   collector,
		log:         log,
	}
}

// Schedule books a new appointment. The conflict check is advisory: the
// booking goes through even when the slot overlaps, and the overlaps are
// returned so the form can warn the operator.
func (s *AppointmentService) Schedule(
	ctx context.Context,
	cmd *appointment.CreateAppointmentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*appointment.Appointment, *schedule.Result, error) {
	if cmd.StartTime.Before(time.Now()) {
		return nil, nil, appointment.ErrScheduledInPast
	}
	if !appointment.IsAllowedDuration(cmd.DurationMins) {
		return nil, nil, appointment.ErrInvalidDuration
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, nil, patient.ErrPatientInactive
	}

	proposed := schedule.NewInterval(cmd.StartTime, cmd.DurationMins)
	existing, err := s.repo.ListOverlapping(ctx, cmd.DoctorID, proposed.Start, proposed.End, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("checking conflicts: %w", err)
	}
	conflicts := schedule.Check(proposed, existing)
	if conflicts.Conflict {
		s.collector.ConflictWarningsTotal.Inc()
		s.log.Warn("booking submitted over an occupied slot",
			zap.String("doctor_id", cmd.DoctorID.String()),
			zap.Time("start", cmd.StartTime),
			zap.Int("overlaps", len(conflicts.Overlapping)),
		)
	}

	a := &appointment.Appointment{
		PatientID:    cmd.PatientID,
		DoctorID:     cmd.DoctorID,
		SpecialtyID:  cmd.SpecialtyID,
		StartTime:    cmd.StartTime,
		DurationMins: cmd.DurationMins,
		Reason:       cmd.Reason,
		Status:       appointment.StatusScheduled,
		CreatedBy:    cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.collector.AppointmentsTotal.WithLabelValues(cmd.SpecialtyID.String()).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, &conflicts, nil
}

// Update edits an appointment that is still editable. InProgress and
// terminal appointments are frozen: only their status may change, through
// ChangeStatus. Time changes re-run the advisory conflict check.
func (s *AppointmentService) Update(
	ctx context.Context,
	id uuid.UUID,
	cmd *appointment.UpdateAppointmentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*appointment.Appointment, *schedule.Result, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !a.Status.IsEditable() {
		return nil, nil, appointment.ErrAppointmentNotEditable
	}

	if cmd.PatientID != nil {
		a.PatientID = *cmd.PatientID
	}
	if cmd.DoctorID != nil {
		a.DoctorID = *cmd.DoctorID
	}
	if cmd.SpecialtyID != nil {
		a.SpecialtyID = *cmd.SpecialtyID
	}
	if cmd.StartTime != nil {
		a.StartTime = *cmd.StartTime
	}
	if cmd.DurationMins != nil {
		// edits may carry arbitrary positive durations
		if *cmd.DurationMins <= 0 {
			return nil, nil, appointment.ErrInvalidDuration
		}
		a.DurationMins = *cmd.DurationMins
	}
	if cmd.Reason != nil {
		a.Reason = *cmd.Reason
	}

	conflicts := schedule.Result{Overlapping: []*appointment.Appointment{}}
	if cmd.StartTime != nil || cmd.DurationMins != nil || cmd.DoctorID != nil {
		proposed := schedule.NewInterval(a.StartTime, a.DurationMins)
		existing, err := s.repo.ListOverlapping(ctx, a.DoctorID, proposed.Start, proposed.End, &a.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("checking conflicts: %w", err)
		}
		conflicts = schedule.Check(proposed, existing)
		if conflicts.Conflict {
			s.collector.ConflictWarningsTotal.Inc()
		}
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, nil, fmt.Errorf("updating appointment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return a, &conflicts, nil
}

// ChangeStatus applies one transition of the status table. This backs the
// status endpoint used for confirm, cancel, the automatic in-progress move
// on consultation open, and rollback.
func (s *AppointmentService) ChangeStatus(
	ctx context.Context,
	id uuid.UUID,
	next appointment.AppointmentStatus,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*appointment.Appointment, error) {
	if !next.IsValid() {
		return nil, appointment.ErrInvalidStatus
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := a.Status
	if err := a.Transition(next); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.collector.StatusTransitionsTotal.WithLabelValues(from.Label(), next.Label()).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"status":{"from":%d,"to":%d}}`, from, next),
	})

	return a, nil
}

func (s *AppointmentService) Cancel(
	ctx context.Context,
	id uuid.UUID,
	cmd *appointment.CancelAppointmentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := a.Status
	if err := a.Cancel(cmd.Reason, cmd.CancelledBy); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.collector.StatusTransitionsTotal.WithLabelValues(from.Label(), appointment.StatusCancelled.Label()).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"status":"cancelled","reason":%q}`, cmd.Reason),
	})

	return a, nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AppointmentService) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

// ListInRange returns every appointment starting in [from, to) without
// pagination; the calendar view must see the whole window, since a missing
// entry renders as a bookable free slot.
func (s *AppointmentService) ListInRange(ctx context.Context, doctorID *uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error) {
	return s.repo.ListInRange(ctx, doctorID, from, to)
}

// ListToday returns a doctor's appointments for the current local calendar
// day, the view offering "Start Consultation" on confirmed entries.
func (s *AppointmentService) ListToday(ctx context.Context, doctorID uuid.UUID) ([]*appointment.Appointment, error) {
	return s.repo.ListForDoctorDay(ctx, doctorID, time.Now())
}

// CheckConflicts runs the advisory conflict check for the scheduling form
// without creating anything.
func (s *AppointmentService) CheckConflicts(
	ctx context.Context,
	doctorID uuid.UUID,
	start time.Time,
	durationMins int,
	excludeID *uuid.UUID,
) (*schedule.Result, error) {
	proposed := schedule.NewInterval(start, durationMins)
	existing, err := s.repo.ListOverlapping(ctx, doctorID, proposed.Start, proposed.End, excludeID)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	res := schedule.Check(proposed, existing)
	return &res, nil
}

// ExpireOverdue sweeps scheduled appointments whose slot has fully elapsed
// into the expired status. Invoked periodically from the server loop.
func (s *AppointmentService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("expiring overdue appointments: %w", err)
	}
	if n > 0 {
		s.collector.AppointmentsExpired.Add(float64(n))
		s.log.Info("expired overdue appointments", zap.Int64("count", n))
	}
	return n, nil
}
