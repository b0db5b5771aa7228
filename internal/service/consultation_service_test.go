package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinicdesk/internal/domain"
	"clinicdesk/internal/domain/appointment"
	"clinicdesk/internal/domain/consultation"
	"clinicdesk/internal/domain/patient"
	"clinicdesk/internal/guard"
	"clinicdesk/pkg/metrics"
)

// prometheus collectors register globally, so tests share one instance
var (
	collectorOnce sync.Once
	testCollector *metrics.Collector
)

func sharedCollector() *metrics.Collector {
	collectorOnce.Do(func() {
		testCollector = metrics.NewCollector("clinicdesk_test")
	})
	return testCollector
}

var testNow = time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)

type stubApptRepo struct {
	byID        map[uuid.UUID]*appointment.Appointment
	overlapping []*appointment.Appointment
	created     []*appointment.Appointment
	statusSaves []appointment.AppointmentStatus
	expired     int64
}

func (r *stubApptRepo) Create(_ context.Context, a *appointment.Appointment) error {
	a.ID = uuid.New()
	r.created = append(r.created, a)
	return nil
}

func (r *stubApptRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	return nil, appointment.ErrAppointmentNotFound
}

func (r *stubApptRepo) Update(_ context.Context, _ *appointment.Appointment) error { return nil }

func (r *stubApptRepo) List(_ context.Context, _ *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	return &appointment.PagedAppointments{}, nil
}

func (r *stubApptRepo) ListForDoctorDay(_ context.Context, _ uuid.UUID, _ time.Time) ([]*appointment.Appointment, error) {
	return nil, nil
}

func (r *stubApptRepo) ListInRange(_ context.Context, doctorID *uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for _, a := range r.byID {
		if a.StartTime.Before(from) || !a.StartTime.Before(to) {
			continue
		}
		if doctorID != nil && a.DoctorID != *doctorID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *stubApptRepo) ListOverlapping(_ context.Context, _ uuid.UUID, _, _ time.Time, _ *uuid.UUID) ([]*appointment.Appointment, error) {
	return r.overlapping, nil
}

func (r *stubApptRepo) UpdateStatus(_ context.Context, a *appointment.Appointment) error {
	r.statusSaves = append(r.statusSaves, a.Status)
	return nil
}

func (r *stubApptRepo) ExpireOverdue(_ context.Context, _ time.Time) (int64, error) {
	return r.expired, nil
}

type stubPatientRepo struct {
	byID map[uuid.UUID]*patient.Patient
}

func (r *stubPatientRepo) Create(_ context.Context, _ *patient.Patient) error { return nil }

func (r *stubPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, patient.ErrPatientNotFound
}

type nopAuditRepo struct{}

func (nopAuditRepo) Create(_ context.Context, _ *domain.AuditLog) error { return nil }

type transitionCall struct {
	appointmentID uuid.UUID
	next          appointment.AppointmentStatus
}

type stubTransitions struct {
	bestEffort  []transitionCall
	mustSucceed []transitionCall
	failNext    error
}

func (t *stubTransitions) BestEffort(_ context.Context, id uuid.UUID, next appointment.AppointmentStatus) {
	t.bestEffort = append(t.bestEffort, transitionCall{id, next})
}

func (t *stubTransitions) MustSucceed(_ context.Context, id uuid.UUID, next appointment.AppointmentStatus) error {
	if t.failNext != nil {
		return t.failNext
	}
	t.mustSucceed = append(t.mustSucceed, transitionCall{id, next})
	return nil
}

type consultationFixture struct {
	svc         *ConsultationService
	appts       *stubApptRepo
	transitions *stubTransitions
	apptID      uuid.UUID
	patientID   uuid.UUID
}

func newConsultationFixture(t *testing.T, status appointment.AppointmentStatus, start time.Time) *consultationFixture {
	t.Helper()

	apptID := uuid.New()
	patientID := uuid.New()
	appts := &stubApptRepo{byID: map[uuid.UUID]*appointment.Appointment{
		apptID: {
			ID:           apptID,
			PatientID:    patientID,
			DoctorID:     uuid.New(),
			StartTime:    start,
			DurationMins: 30,
			Status:       status,
		},
	}}
	patients := &stubPatientRepo{byID: map[uuid.UUID]*patient.Patient{
		patientID: {
			ID:          patientID,
			FirstName:   "Jane",
			LastName:    "Doe",
			DateOfBirth: time.Date(1990, time.June, 1, 0, 0, 0, 0, time.UTC),
			Allergies:   []string{"penicillin"},
			Status:      patient.StatusActive,
		},
	}}

	log := zap.NewNop()
	collector := sharedCollector()
	transitions := &stubTransitions{}
	auditSvc := NewAuditService(nopAuditRepo{}, log, collector)
	t.Cleanup(auditSvc.Shutdown)

	svc := NewConsultationService(appts, patients, transitions, auditSvc, collector, log)
	svc.now = func() time.Time { return testNow }

	return &consultationFixture{
		svc:         svc,
		appts:       appts,
		transitions: transitions,
		apptID:      apptID,
		patientID:   patientID,
	}
}

func (f *consultationFixture) open(t *testing.T) *OpenedSession {
	t.Helper()
	opened, err := f.svc.Open(context.Background(), f.apptID, uuid.New(), "doctor", "10.0.0.1")
	require.NoError(t, err)
	return opened
}

func TestOpenRejectsWrongStatus(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusScheduled, testNow)

	_, err := f.svc.Open(context.Background(), f.apptID, uuid.New(), "doctor", "10.0.0.1")

	var abort *consultation.AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, consultation.AbortWrongStatus, abort.Reason)
	assert.Empty(t, f.transitions.bestEffort, "aborted open must have no side effects")
	assert.Nil(t, f.svc.ActiveSession())
	assert.False(t, f.svc.UnloadWarning(), "guard must never arm on abort")
}

func TestOpenRejectsAppointmentNotToday(t *testing.T) {
	yesterday := testNow.Add(-24 * time.Hour)
	f := newConsultationFixture(t, appointment.StatusConfirmed, yesterday)

	_, err := f.svc.Open(context.Background(), f.apptID, uuid.New(), "doctor", "10.0.0.1")

	var abort *consultation.AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, consultation.AbortNotToday, abort.Reason)
	assert.Empty(t, f.transitions.bestEffort)
	assert.Nil(t, f.svc.ActiveSession())
}

func TestOpenConfirmedTodayStartsAndRequestsInProgress(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow.Add(time.Hour))

	opened := f.open(t)

	assert.Equal(t, consultation.StateActive, opened.Session.State)
	assert.True(t, opened.Guard.Armed())
	require.Len(t, f.transitions.bestEffort, 1, "exactly one in-progress request")
	assert.Equal(t, appointment.StatusInProgress, f.transitions.bestEffort[0].next)
	assert.Equal(t, f.apptID, f.transitions.bestEffort[0].appointmentID)

	assert.Equal(t, "Jane Doe", opened.Bootstrap.Patient.Name)
	assert.Equal(t, 35, opened.Bootstrap.Patient.Age)
	assert.Equal(t, []string{"penicillin"}, opened.Bootstrap.Patient.Allergies)
	assert.Equal(t, int(appointment.StatusConfirmed), opened.Bootstrap.StatusID)
}

func TestOpenInProgressResumesWithoutTransition(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusInProgress, testNow)

	opened := f.open(t)

	assert.Equal(t, consultation.StateActive, opened.Session.State)
	assert.Empty(t, f.transitions.bestEffort, "resuming must not re-request in-progress")
}

func TestOpenRejectsSecondSession(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	f.open(t)

	_, err := f.svc.Open(context.Background(), f.apptID, uuid.New(), "doctor", "10.0.0.1")

	var abort *consultation.AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, consultation.AbortAlreadyActive, abort.Reason)
}

func TestFinalizeProceedsAfterConfirmation(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	opened := f.open(t)

	navigated, err := f.svc.Finalize(context.Background(), guard.Decision(true), uuid.New(), "doctor", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, navigated)
	assert.Equal(t, consultation.StateFinalized, opened.Session.State)
	assert.False(t, opened.Guard.Armed())
	assert.Empty(t, f.transitions.mustSucceed, "finalize issues no transition itself")
	assert.Nil(t, f.svc.ActiveSession())
}

func TestFinalizeDeclinedLeavesSessionUntouched(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	opened := f.open(t)

	navigated, err := f.svc.Finalize(context.Background(), guard.Decision(false), uuid.New(), "doctor", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, navigated)
	assert.Equal(t, consultation.StateActive, opened.Session.State)
	assert.True(t, opened.Guard.Armed())
}

func TestFinalizeDoubleInvocationNavigatesOnce(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	f.open(t)

	first, err := f.svc.Finalize(context.Background(), guard.Decision(true), uuid.New(), "doctor", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := f.svc.Finalize(context.Background(), guard.Decision(true), uuid.New(), "doctor", "10.0.0.1")
	assert.False(t, second, "second confirm must not navigate again")
	assert.ErrorIs(t, err, consultation.ErrNoActiveSession)
}

func TestClosedSessionReportsNotActive(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	opened := f.open(t)

	// a concurrent call closed the session between this caller's snapshot
	// and its state check
	opened.Session.State = consultation.StateFinalized

	navigated, err := f.svc.Finalize(context.Background(), guard.Decision(true), uuid.New(), "doctor", "10.0.0.1")
	assert.False(t, navigated)
	assert.ErrorIs(t, err, consultation.ErrSessionNotActive)

	navigated, err = f.svc.Rollback(context.Background(), guard.Decision(true), uuid.New(), "doctor", "10.0.0.1")
	assert.False(t, navigated)
	assert.ErrorIs(t, err, consultation.ErrSessionNotActive)
	assert.Empty(t, f.transitions.mustSucceed, "no transition may be issued for a closed session")
}

func TestRollbackFailureKeepsSessionArmed(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	opened := f.open(t)
	f.transitions.failNext = errors.New("backend unavailable")

	navigated, err := f.svc.Rollback(context.Background(), guard.Decision(true), uuid.New(), "doctor", "10.0.0.1")

	require.ErrorIs(t, err, consultation.ErrRollbackRejected)
	assert.False(t, navigated)
	assert.Equal(t, consultation.StateActive, opened.Session.State)
	assert.True(t, opened.Guard.Armed(), "guard stays armed when rollback fails")
	assert.Same(t, opened.Session, f.svc.ActiveSession())
}

func TestRollbackSuccessDisarmsAndNavigates(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	opened := f.open(t)

	navigated, err := f.svc.Rollback(context.Background(), guard.Decision(true), uuid.New(), "doctor", "10.0.0.1")

	require.NoError(t, err)
	assert.True(t, navigated)
	require.Len(t, f.transitions.mustSucceed, 1)
	assert.Equal(t, appointment.StatusConfirmed, f.transitions.mustSucceed[0].next)
	assert.Equal(t, consultation.StateRolledBack, opened.Session.State)
	assert.False(t, opened.Guard.Armed())
	assert.Nil(t, f.svc.ActiveSession())
}

func TestRollbackDeclinedIssuesNoTransition(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	opened := f.open(t)

	navigated, err := f.svc.Rollback(context.Background(), guard.Decision(false), uuid.New(), "doctor", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, navigated)
	assert.Empty(t, f.transitions.mustSucceed)
	assert.True(t, opened.Guard.Armed())
}

func TestLeaveDuringActiveSessionNeedsConfirmation(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	f.open(t)

	pending, err := f.svc.RequestLeave(context.Background(), "/appointments", guard.Decision(false))
	require.NoError(t, err)
	assert.False(t, pending.Committed(), "declining keeps the operator on the page")

	pending, err = f.svc.RequestLeave(context.Background(), "/appointments", guard.Decision(true))
	require.NoError(t, err)
	assert.True(t, pending.Committed())
}

func TestLeaveAfterIntentionalExitSkipsPrompt(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	f.open(t)

	_, err := f.svc.Finalize(context.Background(), guard.Decision(true), uuid.New(), "doctor", "10.0.0.1")
	require.NoError(t, err)

	// decline answer would block the navigation if a prompt were shown
	pending, err := f.svc.RequestLeave(context.Background(), "/appointments/today", guard.Decision(false))
	require.NoError(t, err)
	assert.True(t, pending.Committed(), "intentional exit must not re-prompt")
}

func TestUnloadWarningTracksSessionLifecycle(t *testing.T) {
	f := newConsultationFixture(t, appointment.StatusConfirmed, testNow)
	assert.False(t, f.svc.UnloadWarning())

	f.open(t)
	assert.True(t, f.svc.UnloadWarning())

	_, err := f.svc.Rollback(context.Background(), guard.Decision(true), uuid.New(), "doctor", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, f.svc.UnloadWarning())
}
