package db

import (
	"database/sql"

	"github.com/hpungsan/pillbox/internal/adherence"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
	"github.com/hpungsan/pillbox/internal/settings"
)

// ReplaceAll swaps the entire database contents in one transaction. Used by
// import: a malformed document must never leave a partial replacement, so
// any failure rolls back to the pre-import state.
func ReplaceAll(db *sql.DB, meds []*medication.Medication, entries []*adherence.Entry, s settings.Settings) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewPersistence(err)
	}
	defer tx.Rollback()

	for _, table := range []string{"dose_times", "medications", "action_log"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return errors.NewPersistence(err)
		}
	}

	for _, m := range meds {
		if _, err := tx.Exec(
			`INSERT INTO medications (id, name, dosage, notes, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Dosage, m.Notes, boolToInt(m.Active), m.CreatedAt,
		); err != nil {
			return errors.NewPersistence(err)
		}
		if err := insertDoseTimes(tx, m.ID, m.Times); err != nil {
			return err
		}
	}

	for _, e := range entries {
		if _, err := tx.Exec(
			`INSERT INTO action_log (id, medication_id, medication_name, action, time_of_day, day, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.MedicationID, e.MedicationName, string(e.Action), e.Time, e.Day, e.RecordedAt,
		); err != nil {
			return errors.NewPersistence(err)
		}
	}

	if _, err := tx.Exec(
		`UPDATE settings SET sound = ?, vibration = ?, high_contrast = ?, text_size = ? WHERE id = 1`,
		boolToInt(s.Sound), boolToInt(s.Vibration), boolToInt(s.HighContrast), s.TextSize,
	); err != nil {
		return errors.NewPersistence(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewPersistence(err)
	}
	return nil
}
