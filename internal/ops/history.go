package ops

import (
	"database/sql"

	"github.com/hpungsan/pillbox/internal/adherence"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
)

// HistoryInput contains parameters for the History operation.
type HistoryInput struct {
	MedicationID string // optional filter
	Day          string // optional filter, "YYYY-MM-DD"
	Action       string // optional filter
	Limit        int    // default DefaultHistoryLimit, capped at MaxHistoryLimit
	Offset       int
}

// HistoryEntry is one log entry in the History output. The name is the
// snapshot taken at record time, so entries survive medication removal.
type HistoryEntry struct {
	ID             string `json:"id"`
	MedicationID   string `json:"medication_id"`
	MedicationName string `json:"medication_name"`
	Action         string `json:"action"`
	Time           string `json:"time"`
	Day            string `json:"day"`
	RecordedAt     int64  `json:"recorded_at"`
}

// HistoryOutput contains the result of the History operation.
type HistoryOutput struct {
	Entries    []HistoryEntry `json:"entries"`
	Pagination Pagination     `json:"pagination"`
}

// History returns action log entries, most recent first.
func History(database *sql.DB, input HistoryInput) (*HistoryOutput, error) {
	if input.Action != "" && !adherence.Action(input.Action).Valid() {
		return nil, errors.NewInvalidRequest("action must be taken, missed, or skipped")
	}
	if input.Limit < 0 || input.Offset < 0 {
		return nil, errors.NewInvalidRequest("limit and offset must not be negative")
	}

	limit := input.Limit
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	filter := db.EntryFilter{
		MedicationID: input.MedicationID,
		Day:          input.Day,
		Action:       input.Action,
		Limit:        limit,
		Offset:       input.Offset,
	}

	entries, err := db.ListEntries(database, filter)
	if err != nil {
		return nil, err
	}
	total, err := db.CountEntries(database, filter)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryEntry{
			ID:             e.ID,
			MedicationID:   e.MedicationID,
			MedicationName: e.MedicationName,
			Action:         string(e.Action),
			Time:           e.Time,
			Day:            e.Day,
			RecordedAt:     e.RecordedAt,
		})
	}

	return &HistoryOutput{
		Entries: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  input.Offset,
			HasMore: input.Offset+len(items) < total,
			Total:   total,
		},
	}, nil
}
