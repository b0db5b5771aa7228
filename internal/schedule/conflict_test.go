package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdesk/internal/domain/appointment"
)

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 9, hour, min, 0, 0, time.UTC)
}

func appt(start time.Time, mins int, status appointment.AppointmentStatus) *appointment.Appointment {
	return &appointment.Appointment{StartTime: start, DurationMins: mins, Status: status}
}

func TestIntervalOverlap(t *testing.T) {
	cases := []struct {
		name           string
		aStart, bStart time.Time
		aMins, bMins   int
		want           bool
	}{
		{"partial overlap", at(9, 0), at(9, 15), 30, 30, true},
		{"adjacent slots do not overlap", at(9, 0), at(9, 30), 30, 30, false},
		{"contained interval", at(9, 0), at(9, 10), 60, 15, true},
		{"identical interval", at(9, 0), at(9, 0), 30, 30, true},
		{"disjoint", at(9, 0), at(11, 0), 30, 30, false},
		{"touching from before", at(9, 30), at(9, 0), 30, 30, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewInterval(tc.aStart, tc.aMins)
			b := NewInterval(tc.bStart, tc.bMins)
			assert.Equal(t, tc.want, a.Overlaps(b))
			assert.Equal(t, tc.want, b.Overlaps(a), "overlap must be symmetric")
		})
	}
}

func TestCheckReportsOverlappingAppointments(t *testing.T) {
	existing := []*appointment.Appointment{
		appt(at(9, 0), 30, appointment.StatusConfirmed),
		appt(at(9, 30), 30, appointment.StatusScheduled),
		appt(at(11, 0), 60, appointment.StatusConfirmed),
	}

	res := Check(NewInterval(at(9, 15), 30), existing)
	require.True(t, res.Conflict)
	require.Len(t, res.Overlapping, 2)
	assert.Equal(t, at(9, 0), res.Overlapping[0].StartTime)
	assert.Equal(t, at(9, 30), res.Overlapping[1].StartTime)
}

func TestCheckIgnoresTerminalAppointments(t *testing.T) {
	existing := []*appointment.Appointment{
		appt(at(9, 0), 30, appointment.StatusCancelled),
		appt(at(9, 0), 30, appointment.StatusExpired),
		appt(at(9, 0), 30, appointment.StatusCompleted),
	}

	res := Check(NewInterval(at(9, 0), 30), existing)
	assert.False(t, res.Conflict)
	assert.Empty(t, res.Overlapping)
}

func TestCheckFreeSlot(t *testing.T) {
	existing := []*appointment.Appointment{
		appt(at(9, 0), 30, appointment.StatusConfirmed),
	}

	res := Check(NewInterval(at(9, 30), 45), existing)
	assert.False(t, res.Conflict)
}
