package ops

import (
	"database/sql"

	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
)

// StatusInput contains parameters for the Status operation.
type StatusInput struct {
	ID   string // required
	Time string // required, "HH:MM"
}

// StatusOutput contains the result of the Status operation.
type StatusOutput struct {
	MedicationID string `json:"medication_id"`
	Time         string `json:"time"`
	Day          string `json:"day"`
	Status       string `json:"status"`
}

// Status reports whether a dose slot is marked taken for today. Status is
// never stored: it is derived from the log on every call.
func Status(database *sql.DB, input StatusInput) (*StatusOutput, error) {
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

	day := today()
	taken, err := db.TakenExists(database, m.ID, tod, day)
	if err != nil {
		return nil, err
	}

	status := StatusUnmarked
	if taken {
		status = StatusTaken
	}
	return &StatusOutput{MedicationID: m.ID, Time: tod, Day: day, Status: status}, nil
}
