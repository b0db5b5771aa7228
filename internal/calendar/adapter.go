// Package calendar maps appointment records onto the calendar view and
// range selections back into scheduling proposals.
package calendar

import (
	"time"

	"github.com/google/uuid"

	"clinicdesk/internal/domain/appointment"
)

// Event is one rendered calendar entry, colored by status.
type Event struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	Title         string    `json:"title"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	StatusID      int       `json:"statusId"`
	StatusLabel   string    `json:"statusLabel"`
	Background    string    `json:"backgroundColor"`
	Border        string    `json:"borderColor"`
	TextColor     string    `json:"textColor"`
	Editable      bool      `json:"editable"`
}

// NameResolver supplies display names for event titles; the adapter stays
// free of repository plumbing.
type NameResolver func(patientID uuid.UUID) string

type Adapter struct {
	resolve NameResolver
}

func NewAdapter(resolve NameResolver) *Adapter {
	if resolve == nil {
		resolve = func(uuid.UUID) string { return "" }
	}
	return &Adapter{resolve: resolve}
}

// EventsFrom renders appointments as calendar events. Unknown statuses get
// the neutral palette so future backend codes degrade gracefully instead of
// breaking the view.
func (ad *Adapter) EventsFrom(appointments []*appointment.Appointment) []Event {
	events := make([]Event, 0, len(appointments))
	for _, a := range appointments {
		title := ad.resolve(a.PatientID)
		if a.Reason != "" {
			if title != "" {
				title += " - " + a.Reason
			} else {
				title = a.Reason
			}
		}
		colors := a.Status.Colors()
		events = append(events, Event{
			AppointmentID: a.ID,
			Title:         title,
			Start:         a.StartTime,
			End:           a.EndsAt(),
			StatusID:      int(a.Status),
			StatusLabel:   a.Status.Label(),
			Background:    colors.Background,
			Border:        colors.Border,
			TextColor:     colors.Text,
			Editable:      a.Status.IsEditable(),
		})
	}
	return events
}

// Slot is a proposed booking derived from a calendar range selection.
type Slot struct {
	Start        time.Time `json:"start"`
	DurationMins int       `json:"durationMins"`
}

// SlotFromSelection converts a dragged calendar range into a slot, snapping
// the span down to the largest allowed increment that fits. Selections
// shorter than the smallest increment still yield the smallest one.
func SlotFromSelection(start, end time.Time) Slot {
	span := int(end.Sub(start) / time.Minute)
	snapped := appointment.AllowedDurations[0]
	for _, d := range appointment.AllowedDurations {
		if d <= span {
			snapped = d
		}
	}
	return Slot{Start: start, DurationMins: snapped}
}
