package ops

import (
	"database/sql"

	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
)

// SetActiveInput contains parameters for the SetActive operation.
type SetActiveInput struct {
	ID     string // required
	Active bool
}

// SetActiveOutput contains the result of the SetActive operation.
type SetActiveOutput struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// SetActive pauses or resumes a medication. Paused medications drop out of
// the daily schedule and the reminder loop but keep their history.
func SetActive(database *sql.DB, input SetActiveInput) (*SetActiveOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	ok, err := db.SetMedicationActive(database, input.ID, input.Active)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound(input.ID)
	}

	return &SetActiveOutput{ID: input.ID, Active: input.Active}, nil
}
