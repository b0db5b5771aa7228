package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinicdesk/internal/domain/appointment"
	"clinicdesk/internal/domain/consultation"
	"clinicdesk/internal/domain/patient"
	"clinicdesk/internal/guard"
	"clinicdesk/pkg/metrics"
)

// TransitionRequester issues status transitions against the backing store
// in one of two deliberate modes. The asymmetry is part of the contract:
// the automatic confirmed→in-progress move on open is fire-and-forget,
// while rollback must observe a confirmed success before the session lets
// the operator go.
type TransitionRequester interface {
	// BestEffort requests the transition without blocking the caller.
	// Failures are logged, never surfaced; the session continues.
	BestEffort(ctx context.Context, appointmentID uuid.UUID, next appointment.AppointmentStatus)

	// MustSucceed requests the transition synchronously and reports failure.
	MustSucceed(ctx context.Context, appointmentID uuid.UUID, next appointment.AppointmentStatus) error
}

// statusTransitioner is the repository-backed TransitionRequester.
type statusTransitioner struct {
	repo appointment.Repository
	log  *zap.Logger
}

func NewStatusTransitioner(repo appointment.Repository, log *zap.Logger) TransitionRequester {
	return &statusTransitioner{repo: repo, log: log}
}

func (t *statusTransitioner) apply(ctx context.Context, id uuid.UUID, next appointment.AppointmentStatus) error {
	a, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.Transition(next); err != nil {
		return err
	}
	return t.repo.UpdateStatus(ctx, a)
}

func (t *statusTransitioner) BestEffort(_ context.Context, id uuid.UUID, next appointment.AppointmentStatus) {
	// Detached from the caller's context: the operator is already inside
	// the consultation and must not wait on, or be failed by, this call.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.apply(ctx, id, next); err != nil {
			t.log.Warn("best-effort status transition failed",
				zap.String("appointment_id", id.String()),
				zap.String("to", next.Label()),
				zap.Error(err),
			)
		}
	}()
}

func (t *statusTransitioner) MustSucceed(ctx context.Context, id uuid.UUID, next appointment.AppointmentStatus) error {
	return t.apply(ctx, id, next)
}

var (
	finalizePrompt = guard.Prompt{
		Title:       "Finalize Consultation",
		Description: "Finish this consultation? The appointment record will no longer be editable.",
		ConfirmText: "Finalize",
		CancelText:  "Cancel",
		Variant:     "primary",
	}
	rollbackPrompt = guard.Prompt{
		Title:       "Return Appointment to Confirmed",
		Description: "The appointment status returns to Confirmed and the consultation can be resumed later.",
		ConfirmText: "Roll back",
		CancelText:  "Stay",
		Variant:     "warning",
	}
)

// Bootstrap is the payload the consultation view opens with.
type Bootstrap struct {
	Patient   patient.Summary `json:"patient"`
	StartTime time.Time       `json:"startTime"`
	StatusID  int             `json:"statusId"`
}

// OpenedSession is the result of a successful Open.
type OpenedSession struct {
	Session   *consultation.Session
	Guard     *guard.Guard
	Bootstrap Bootstrap
}

// ConsultationService owns the state machine of the single active
// consultation: open validation, the automatic in-progress transition,
// finalize, rollback, and the navigation guard tied to the session.
type ConsultationService struct {
	appts       appointment.Repository
	patients    patient.Repository
	transitions TransitionRequester
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger

	// injectable clock for the date-is-today validation
	now func() time.Time

	mu     sync.Mutex
	active *consultation.Session
	guard  *guard.Guard
}

func NewConsultationService(
	appts appointment.Repository,
	patients patient.Repository,
	transitions TransitionRequester,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *ConsultationService {
	return &ConsultationService{
		appts:       appts,
		patients:    patients,
		transitions: transitions,
		auditSvc:    auditSvc,
		collector:   collector,
		log:         log,
		now:         time.Now,
	}
}

func (s *ConsultationService) abort(sess *consultation.Session, reason consultation.AbortReason) error {
	if sess != nil {
		sess.State = consultation.StateAborted
	}
	s.collector.ConsultationsAborted.WithLabelValues(reason.String()).Inc()
	return &consultation.AbortError{Reason: reason}
}

// Open starts a consultation session for an appointment. The appointment
// must be Confirmed or InProgress and dated today (local calendar day);
// otherwise the open aborts with a reason and no side effects, and the
// guard is never armed. When the appointment is still Confirmed, the
// in-progress transition is requested best-effort so the operator is not
// blocked on it.
func (s *ConsultationService) Open(
	ctx context.Context,
	appointmentID uuid.UUID,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*OpenedSession, error) {
	s.mu.Lock()
	if s.active != nil && !s.active.Closed() {
		s.mu.Unlock()
		return nil, s.abort(nil, consultation.AbortAlreadyActive)
	}
	s.mu.Unlock()

	a, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	sess := consultation.NewSession(appointmentID, s.now())

	if a.Status != appointment.StatusConfirmed && a.Status != appointment.StatusInProgress {
		return nil, s.abort(sess, consultation.AbortWrongStatus)
	}
	if !a.IsOnDay(s.now()) {
		return nil, s.abort(sess, consultation.AbortNotToday)
	}

	p, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil {
		sess.State = consultation.StateAborted
		return nil, fmt.Errorf("loading patient summary: %w", err)
	}

	g := guard.New()
	g.Arm()

	s.mu.Lock()
	// registry could have been claimed while we validated
	if s.active != nil && !s.active.Closed() {
		s.mu.Unlock()
		g.Disarm()
		return nil, s.abort(sess, consultation.AbortAlreadyActive)
	}
	sess.State = consultation.StateActive
	s.active = sess
	s.guard = g
	s.mu.Unlock()

	if a.Status == appointment.StatusConfirmed {
		s.transitions.BestEffort(ctx, appointmentID, appointment.StatusInProgress)
	}

	s.collector.ConsultationsOpened.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "consultation",
		ResourceID:   appointmentID.String(),
		IPAddress:    ip,
		Changes:      `{"action":"session_opened"}`,
	})
	s.log.Info("consultation session opened",
		zap.String("appointment_id", appointmentID.String()),
		zap.String("session_id", sess.ID.String()),
	)

	return &OpenedSession{
		Session: sess,
		Guard:   g,
		Bootstrap: Bootstrap{
			Patient:   p.SummaryAt(s.now()),
			StartTime: a.StartTime,
			StatusID:  int(a.Status),
		},
	}, nil
}

// BootstrapFor returns the consultation view payload without touching the
// session registry; the read-only half of the active-consultation endpoint.
func (s *ConsultationService) BootstrapFor(ctx context.Context, appointmentID uuid.UUID) (*Bootstrap, error) {
	a, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	p, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient summary: %w", err)
	}
	return &Bootstrap{
		Patient:   p.SummaryAt(s.now()),
		StartTime: a.StartTime,
		StatusID:  int(a.Status),
	}, nil
}

// Finalize ends the active session after operator confirmation. Once
// confirmed it always proceeds: the guard is marked intentional and
// disarmed, the session closes, and the caller navigates away exactly once.
// No status transition is issued here; completing the appointment is the
// backend's side of the contract. Returns whether navigation should happen.
func (s *ConsultationService) Finalize(
	ctx context.Context,
	confirm guard.Confirmer,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (bool, error) {
	s.mu.Lock()
	sess, g := s.active, s.guard
	s.mu.Unlock()
	if sess == nil || g == nil {
		return false, consultation.ErrNoActiveSession
	}
	if sess.Closed() {
		// second click of a double-confirm: one navigation already happened
		return false, consultation.ErrSessionNotActive
	}

	ok, err := confirm.Confirm(ctx, finalizePrompt)
	if err != nil {
		return false, fmt.Errorf("finalize confirmation: %w", err)
	}
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	if sess.State != consultation.StateActive {
		s.mu.Unlock()
		return false, nil
	}
	sess.State = consultation.StateFinalized
	s.active = nil
	s.guard = nil
	s.mu.Unlock()

	g.MarkIntentional()
	g.Disarm()

	s.collector.ConsultationsFinalized.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "consultation",
		ResourceID:   sess.AppointmentID.String(),
		IPAddress:    ip,
		Changes:      `{"action":"session_finalized"}`,
	})
	s.log.Info("consultation finalized", zap.String("appointment_id", sess.AppointmentID.String()))

	return true, nil
}

// Rollback returns the appointment to Confirmed after operator
// confirmation. Unlike Finalize, it only releases the guard and navigates
// once the backend acknowledged the transition: letting the operator walk
// away on an unconfirmed rollback could strand the appointment in
// InProgress. On failure the session stays active and armed.
func (s *ConsultationService) Rollback(
	ctx context.Context,
	confirm guard.Confirmer,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (bool, error) {
	s.mu.Lock()
	sess, g := s.active, s.guard
	s.mu.Unlock()
	if sess == nil || g == nil {
		return false, consultation.ErrNoActiveSession
	}
	if sess.Closed() {
		return false, consultation.ErrSessionNotActive
	}

	ok, err := confirm.Confirm(ctx, rollbackPrompt)
	if err != nil {
		return false, fmt.Errorf("rollback confirmation: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := s.transitions.MustSucceed(ctx, sess.AppointmentID, appointment.StatusConfirmed); err != nil {
		s.log.Error("rollback transition failed; session stays active",
			zap.String("appointment_id", sess.AppointmentID.String()),
			zap.Error(err),
		)
		return false, fmt.Errorf("%w: %v", consultation.ErrRollbackRejected, err)
	}

	s.mu.Lock()
	if sess.State != consultation.StateActive {
		s.mu.Unlock()
		return false, nil
	}
	sess.State = consultation.StateRolledBack
	s.active = nil
	s.guard = nil
	s.mu.Unlock()

	g.MarkIntentional()
	g.Disarm()

	s.collector.ConsultationsRolledBack.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "consultation",
		ResourceID:   sess.AppointmentID.String(),
		IPAddress:    ip,
		Changes:      `{"action":"session_rolled_back"}`,
	})

	return true, nil
}

// RequestLeave routes a navigation attempt through the active session's
// guard. With no active session the navigation passes through untouched.
func (s *ConsultationService) RequestLeave(ctx context.Context, destination string, confirm guard.Confirmer) (*guard.PendingNavigation, error) {
	s.mu.Lock()
	g := s.guard
	s.mu.Unlock()

	if g == nil {
		p := &guard.PendingNavigation{Destination: destination}
		p.Proceed()
		return p, nil
	}

	pending, err := g.RequestLeave(ctx, destination, confirm)
	if err != nil {
		return pending, err
	}
	if pending.Committed() {
		s.collector.GuardInterceptionsTotal.WithLabelValues("proceeded").Inc()
	} else {
		s.collector.GuardInterceptionsTotal.WithLabelValues("stayed").Inc()
	}
	return pending, nil
}

// ActiveSession returns the current session, or nil.
func (s *ConsultationService) ActiveSession() *consultation.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// UnloadWarning reports whether the client must force the native
// leave-site prompt on tab close or reload.
func (s *ConsultationService) UnloadWarning() bool {
	s.mu.Lock()
	g := s.guard
	s.mu.Unlock()
	return g != nil && g.UnloadWarning()
}
