package ops

import (
	"database/sql"

	"github.com/hpungsan/pillbox/internal/db"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	All bool // include paused medications
}

// MedicationItem is one medication in the List output.
type MedicationItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Dosage    string   `json:"dosage,omitempty"`
	Times     []string `json:"times"`
	Notes     string   `json:"notes,omitempty"`
	Active    bool     `json:"active"`
	CreatedAt int64    `json:"created_at"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []MedicationItem `json:"items"`
	Total int              `json:"total"`
}

// List returns medication definitions, active first, then by name.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	meds, err := db.ListMedications(database, !input.All)
	if err != nil {
		return nil, err
	}

	items := make([]MedicationItem, 0, len(meds))
	for _, m := range meds {
		items = append(items, MedicationItem{
			ID:        m.ID,
			Name:      m.Name,
			Dosage:    m.Dosage,
			Times:     m.Times,
			Notes:     m.Notes,
			Active:    m.Active,
			CreatedAt: m.CreatedAt,
		})
	}

	return &ListOutput{Items: items, Total: len(items)}, nil
}
