package appointment

// AppointmentStatus is the integer-coded status shared with the backend wire
// contract. The codes are external: UI badges, list filters, and the status
// endpoint all key off these exact numbers.
type AppointmentStatus int

const (
	StatusScheduled  AppointmentStatus = 1
	StatusConfirmed  AppointmentStatus = 2
	StatusInProgress AppointmentStatus = 3
	StatusCompleted  AppointmentStatus = 4
	StatusCancelled  AppointmentStatus = 5
	StatusExpired    AppointmentStatus = 6
)

func (s AppointmentStatus) IsValid() bool {
	return s >= StatusScheduled && s <= StatusExpired
}

// Label returns the display label for a status. Unknown codes return
// "Unknown" rather than failing, since the backend may introduce new
// statuses before this client learns about them.
func (s AppointmentStatus) Label() string {
	switch s {
	case StatusScheduled:
		return "Scheduled"
	case StatusConfirmed:
		return "Confirmed"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	case StatusExpired:
		return "Expired"
	}
	return "Unknown"
}

// ColorSet is the badge/calendar color triple for a status.
type ColorSet struct {
	Background string `json:"background"`
	Border     string `json:"border"`
	Text       string `json:"text"`
}

var statusColors = map[AppointmentStatus]ColorSet{
	StatusScheduled:  {Background: "#e3f2fd", Border: "#2196f3", Text: "#0d47a1"},
	StatusConfirmed:  {Background: "#e8f5e9", Border: "#4caf50", Text: "#1b5e20"},
	StatusInProgress: {Background: "#fff8e1", Border: "#ffc107", Text: "#e65100"},
	StatusCompleted:  {Background: "#eceff1", Border: "#607d8b", Text: "#263238"},
	StatusCancelled:  {Background: "#ffebee", Border: "#f44336", Text: "#b71c1c"},
	StatusExpired:    {Background: "#fafafa", Border: "#9e9e9e", Text: "#616161"},
}

// neutral fallback for codes this build does not know about
var neutralColors = ColorSet{Background: "#f5f5f5", Border: "#bdbdbd", Text: "#424242"}

func (s AppointmentStatus) Colors() ColorSet {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return neutralColors
}

// IsEditable reports whether appointment fields (patient, doctor, time,
// reason) may still be changed. Once a consultation has started the record
// is frozen except for its status.
func (s AppointmentStatus) IsEditable() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// IsTerminal reports whether the status is final.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired
}

// State transition possibilities:
//
//	scheduled   → confirmed | cancelled | expired
//	confirmed   → in_progress | cancelled
//	in_progress → completed | confirmed (consultation rollback)
//	completed / cancelled / expired → (terminal)
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusConfirmed},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusExpired:    {},
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, n := range allowedTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}
