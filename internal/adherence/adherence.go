package adherence

import "time"

// Action is the kind of adherence event recorded for a dose slot.
type Action string

const (
	ActionTaken   Action = "taken"
	ActionMissed  Action = "missed"
	ActionSkipped Action = "skipped"
)

// Valid reports whether a is a known action kind.
func (a Action) Valid() bool {
	switch a {
	case ActionTaken, ActionMissed, ActionSkipped:
		return true
	}
	return false
}

// DayLayout is the calendar-day format used throughout the log.
const DayLayout = "2006-01-02"

// Day returns the calendar day of t in t's location.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}

// Entry is one append-only record in the action log.
//
// Entries reference medications weakly: the medication may be deleted later
// and the entry survives, readable through the name snapshot.
type Entry struct {
	// ID is a ULID that uniquely identifies this entry
	ID string

	// MedicationID is a weak reference to the medication
	MedicationID string

	// MedicationName is a snapshot of the medication name at record time
	MedicationName string

	// Action is the event kind (taken, missed, skipped)
	Action Action

	// Time is the scheduled dose time this entry resolves ("HH:MM")
	Time string

	// Day is the calendar day the action was recorded on ("YYYY-MM-DD"),
	// derived from the wall clock at record time, not from Time
	Day string

	// RecordedAt is the exact wall-clock instant of the action (Unix nanos)
	RecordedAt int64
}
