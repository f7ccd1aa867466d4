package ops

import (
	"database/sql"
	"time"

	"github.com/hpungsan/pillbox/internal/adherence"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
)

// ToggleInput contains parameters for the Toggle operation.
type ToggleInput struct {
	ID   string // required
	Time string // required, "HH:MM"
}

// ToggleOutput contains the result of the Toggle operation.
type ToggleOutput struct {
	MedicationID string `json:"medication_id"`
	Time         string `json:"time"`
	Day          string `json:"day"`
	Status       string `json:"status"`
}

// Toggle flips a dose slot between taken and unmarked for today. The undo
// direction is destructive: the taken entry is deleted from the log, not
// annotated, so a toggled-off slot is indistinguishable from one never
// marked. Missed/skipped entries on the slot are left alone.
func Toggle(database *sql.DB, input ToggleInput) (*ToggleOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	tod, err := medication.ParseTime(input.Time)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	m, err := db.GetMedication(database, input.ID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.NewNotFound(input.ID)
	}
	if !m.HasTime(tod) {
		return nil, errors.NewInvalidRequest("medication has no dose at " + tod)
	}

	now := time.Now()
	day := adherence.Day(now)

	taken, err := db.TakenExists(database, m.ID, tod, day)
	if err != nil {
		return nil, err
	}

	out := &ToggleOutput{MedicationID: m.ID, Time: tod, Day: day}

	if taken {
		if _, err := db.DeleteTaken(database, m.ID, tod, day); err != nil {
			return nil, err
		}
		out.Status = StatusUnmarked
		return out, nil
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	entry := &adherence.Entry{
		ID:             id,
		MedicationID:   m.ID,
		MedicationName: m.Name,
		Action:         adherence.ActionTaken,
		Time:           tod,
		Day:            day,
		RecordedAt:     now.UnixNano(),
	}
	if err := db.AppendEntry(database, entry); err != nil {
		return nil, err
	}
	out.Status = StatusTaken
	return out, nil
}
