package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdesk/internal/domain/appointment"
)

func TestEventsFromColorsByStatus(t *testing.T) {
	patientID := uuid.New()
	ad := NewAdapter(func(id uuid.UUID) string {
		require.Equal(t, patientID, id)
		return "Jane Doe"
	})

	start := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	appts := []*appointment.Appointment{
		{
			ID:           uuid.New(),
			PatientID:    patientID,
			StartTime:    start,
			DurationMins: 30,
			Reason:       "Follow-up",
			Status:       appointment.StatusConfirmed,
		},
	}

	events := ad.EventsFrom(appts)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "Jane Doe - Follow-up", ev.Title)
	assert.Equal(t, start, ev.Start)
	assert.Equal(t, start.Add(30*time.Minute), ev.End)
	assert.Equal(t, 2, ev.StatusID)
	assert.Equal(t, "Confirmed", ev.StatusLabel)
	assert.Equal(t, appointment.StatusConfirmed.Colors().Background, ev.Background)
	assert.True(t, ev.Editable)
}

func TestEventsFromFrozenOnceInProgress(t *testing.T) {
	ad := NewAdapter(nil)
	events := ad.EventsFrom([]*appointment.Appointment{
		{ID: uuid.New(), Status: appointment.StatusInProgress, DurationMins: 30},
		{ID: uuid.New(), Status: appointment.StatusCompleted, DurationMins: 30},
	})
	require.Len(t, events, 2)
	assert.False(t, events[0].Editable)
	assert.False(t, events[1].Editable)
}

func TestSlotFromSelectionSnapsToAllowedIncrements(t *testing.T) {
	start := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		spanMins int
		want     int
	}{
		{5, 15},   // below the smallest increment still books the smallest
		{15, 15},
		{20, 15},
		{30, 30},
		{50, 45},
		{60, 60},
		{100, 90},
		{120, 120},
		{300, 120}, // capped at the largest increment
	}

	for _, tc := range cases {
		slot := SlotFromSelection(start, start.Add(time.Duration(tc.spanMins)*time.Minute))
		assert.Equal(t, tc.want, slot.DurationMins, "span %d", tc.spanMins)
		assert.Equal(t, start, slot.Start)
	}
}
