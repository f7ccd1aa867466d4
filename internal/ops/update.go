package ops

import (
	"database/sql"

	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
)

// UpdateInput contains parameters for the Update operation.
// Nil fields are left unchanged.
type UpdateInput struct {
	ID     string // required
	Name   *string
	Dosage *string
	Times  *[]string
	Notes  *string
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Times []string `json:"times"`
}

// Update modifies an existing medication definition. Past log entries keep
// their recorded name snapshot; only future entries see the new name.
func Update(database *sql.DB, input UpdateInput) (*UpdateOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	m, err := db.GetMedication(database, input.ID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.NewNotFound(input.ID)
	}

	if input.Name != nil {
		name := medication.NormalizeName(*input.Name)
		if name == "" {
			return nil, errors.NewInvalidRequest("name must not be empty")
		}
		m.Name = name
	}
	if input.Dosage != nil {
		m.Dosage = *input.Dosage
	}
	if input.Notes != nil {
		m.Notes = *input.Notes
	}
	if input.Times != nil {
		times, err := normalizeTimes(*input.Times)
		if err != nil {
			return nil, err
		}
		m.Times = times
	}

	if err := db.UpdateMedication(database, m); err != nil {
		return nil, err
	}

	return &UpdateOutput{ID: m.ID, Name: m.Name, Times: m.Times}, nil
}
