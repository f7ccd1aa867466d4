package ops

import (
	"database/sql"

	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
)

// RemoveInput contains parameters for the Remove operation.
type RemoveInput struct {
	ID string // required
}

// RemoveOutput contains the result of the Remove operation.
type RemoveOutput struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

// Remove hard-deletes a medication. The action log is not cleaned up: past
// entries survive through their name snapshot. Any armed reminders for the
// medication stop at the next fire, when the scheduler re-checks existence.
func Remove(database *sql.DB, input RemoveInput) (*RemoveOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	removed, err := db.DeleteMedication(database, input.ID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, errors.NewNotFound(input.ID)
	}

	return &RemoveOutput{ID: input.ID, Removed: true}, nil
}
