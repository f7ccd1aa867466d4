package ops

import (
	"database/sql"
	"time"

	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	Name   string   // required
	Dosage string   // optional, e.g. "81mg"
	Times  []string // required, "HH:MM", distinct after normalization
	Notes  string   // optional markdown instructions
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Times []string `json:"times"`
}

// Add creates a new medication. Validation happens before any write, so a
// rejected request never leaves a partial medication behind.
func Add(database *sql.DB, input AddInput) (*AddOutput, error) {
	name := medication.NormalizeName(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	if len(input.Times) == 0 {
		return nil, errors.NewInvalidRequest("at least one dose time is required")
	}

	times, err := normalizeTimes(input.Times)
	if err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	m := &medication.Medication{
		ID:        id,
		Name:      name,
		Dosage:    input.Dosage,
		Times:     times,
		Notes:     input.Notes,
		Active:    true,
		CreatedAt: time.Now().Unix(),
	}

	if err := db.InsertMedication(database, m); err != nil {
		return nil, err
	}

	return &AddOutput{ID: id, Name: name, Times: times}, nil
}
