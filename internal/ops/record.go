package ops

import (
	"database/sql"
	"time"

	"github.com/hpungsan/pillbox/internal/adherence"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
)

// RecordInput contains parameters for the Record operation.
type RecordInput struct {
	ID     string // required
	Time   string // required, "HH:MM"
	Action string // taken | missed | skipped
}

// RecordOutput contains the result of the Record operation.
type RecordOutput struct {
	Recorded bool   `json:"recorded"`
	EntryID  string `json:"entry_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Record appends one action to the log for a dose slot today.
//
// Taken is exactly-once per slot per day: if a taken mark already exists the
// call reports the current status without writing. Missed and skipped are
// annotations and append unconditionally; they never change the slot's
// status. A vanished medication is a silent no-op rather than an error, so
// a reminder acted on after removal does not surface a failure.
func Record(database *sql.DB, input RecordInput) (*RecordOutput, error) {
	action := adherence.Action(input.Action)
	if !action.Valid() {
		return nil, errors.NewInvalidRequest("action must be taken, missed, or skipped")
	}
	tod, err := medication.ParseTime(input.Time)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	m, err := db.GetMedication(database, input.ID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &RecordOutput{Recorded: false}, nil
	}

	now := time.Now()
	day := adherence.Day(now)

	if action == adherence.ActionTaken {
		exists, err := db.TakenExists(database, m.ID, tod, day)
		if err != nil {
			return nil, err
		}
		if exists {
			return &RecordOutput{Recorded: false, Status: StatusTaken}, nil
		}
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	entry := &adherence.Entry{
		ID:             id,
		MedicationID:   m.ID,
		MedicationName: m.Name,
		Action:         action,
		Time:           tod,
		Day:            day,
		RecordedAt:     now.UnixNano(),
	}
	if err := db.AppendEntry(database, entry); err != nil {
		return nil, err
	}

	status := StatusUnmarked
	if action == adherence.ActionTaken {
		status = StatusTaken
	}
	return &RecordOutput{Recorded: true, EntryID: id, Status: status}, nil
}
