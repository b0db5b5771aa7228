// Package schedule decides whether a proposed appointment slot is bookable
// for a doctor. The check is advisory: overlaps are reported so the form can
// warn the operator, but nothing is hard-blocked, to leave room for
// deliberate double-booking (walk-ins squeezed between visits).
package schedule

import (
	"time"

	"clinicdesk/internal/domain/appointment"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start time.Time, durationMins int) Interval {
	return Interval{Start: start, End: start.Add(time.Duration(durationMins) * time.Minute)}
}

// Overlaps implements half-open interval intersection: [s1,e1) and [s2,e2)
// conflict iff s1 < e2 && s2 < e1. Back-to-back slots do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Result is what the scheduling form surfaces next to the submit button.
type Result struct {
	Conflict    bool                       `json:"conflict"`
	Overlapping []*appointment.Appointment `json:"overlapping"`
}

// Check compares a proposed interval against a doctor's existing
// appointments. Terminal appointments (cancelled, expired, completed) never
// occupy a slot and are skipped even if a caller passes them in.
func Check(proposed Interval, existing []*appointment.Appointment) Result {
	res := Result{Overlapping: []*appointment.Appointment{}}
	for _, a := range existing {
		if a.Status.IsTerminal() {
			continue
		}
		if proposed.Overlaps(Interval{Start: a.StartTime, End: a.EndsAt()}) {
			res.Overlapping = append(res.Overlapping, a)
		}
	}
	res.Conflict = len(res.Overlapping) > 0
	return res
}
