package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusWireCodes(t *testing.T) {
	assert.EqualValues(t, 1, StatusScheduled)
	assert.EqualValues(t, 2, StatusConfirmed)
	assert.EqualValues(t, 3, StatusInProgress)
	assert.EqualValues(t, 4, StatusCompleted)
	assert.EqualValues(t, 5, StatusCancelled)
	assert.EqualValues(t, 6, StatusExpired)
}

func TestStatusEditability(t *testing.T) {
	assert.True(t, StatusScheduled.IsEditable())
	assert.True(t, StatusConfirmed.IsEditable())
	assert.False(t, StatusInProgress.IsEditable())
	assert.False(t, StatusCompleted.IsEditable())
	assert.False(t, StatusCancelled.IsEditable())
	assert.False(t, StatusExpired.IsEditable())
}

func TestStatusTerminality(t *testing.T) {
	for _, s := range []AppointmentStatus{StatusCompleted, StatusCancelled, StatusExpired} {
		assert.True(t, s.IsTerminal(), s.Label())
	}
	for _, s := range []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusInProgress} {
		assert.False(t, s.IsTerminal(), s.Label())
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusExpired, true},
		{StatusScheduled, StatusInProgress, false},
		{StatusConfirmed, StatusInProgress, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusExpired, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusConfirmed, true}, // consultation rollback
		{StatusInProgress, StatusCancelled, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusExpired, StatusScheduled, false},
	}

	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		assert.Equal(t, tc.want, got, "%s -> %s", tc.from.Label(), tc.to.Label())
	}
}

func TestUnknownStatusIsTotal(t *testing.T) {
	unknown := AppointmentStatus(42)
	assert.Equal(t, "Unknown", unknown.Label())
	assert.Equal(t, neutralColors, unknown.Colors())
	assert.False(t, unknown.IsEditable())
	assert.False(t, unknown.CanTransitionTo(StatusConfirmed))
}

func TestAllowedDurations(t *testing.T) {
	for _, d := range []int{15, 30, 45, 60, 90, 120} {
		assert.True(t, IsAllowedDuration(d))
	}
	assert.False(t, IsAllowedDuration(0))
	assert.False(t, IsAllowedDuration(20))
	assert.False(t, IsAllowedDuration(240))
}
