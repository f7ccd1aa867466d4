package ops

import (
	"database/sql"
	"time"

	"github.com/hpungsan/pillbox/internal/adherence"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
)

// ResolveInput contains parameters for the Resolve operation.
type ResolveInput struct {
	Time string // required, "HH:MM"
}

// ResolveOutput contains the result of the Resolve operation.
type ResolveOutput struct {
	Time    string   `json:"time"`
	Day     string   `json:"day"`
	Marked  []string `json:"marked"`  // medication ids marked by this call
	Skipped []string `json:"skipped"` // medication ids already taken
}

// Resolve marks every unmarked dose at a time group as taken for today.
// Writes are independent per medication: a failure partway leaves earlier
// marks in place, and a retry picks up only what is still unmarked. Slots
// already taken are untouched, so the call is idempotent.
func Resolve(database *sql.DB, input ResolveInput) (*ResolveOutput, error) {
	tod, err := medication.ParseTime(input.Time)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	meds, err := db.ListMedications(database, true)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	day := adherence.Day(now)
	out := &ResolveOutput{Time: tod, Day: day, Marked: []string{}, Skipped: []string{}}

	for _, m := range meds {
		if !m.HasTime(tod) {
			continue
		}
		taken, err := db.TakenExists(database, m.ID, tod, day)
		if err != nil {
			return nil, err
		}
		if taken {
			out.Skipped = append(out.Skipped, m.ID)
			continue
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
		out.Marked = append(out.Marked, m.ID)
	}

	return out, nil
}
