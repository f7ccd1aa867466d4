package db

import (
	"database/sql"
	"fmt"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
)

// InsertMedication stores a new medication and its dose times atomically.
// Either the whole medication lands or nothing does.
func InsertMedication(db *sql.DB, m *medication.Medication) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewPersistence(err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO medications (id, name, dosage, notes, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Dosage, m.Notes, boolToInt(m.Active), m.CreatedAt,
	)
	if err != nil {
		return errors.NewPersistence(err)
	}

	if err := insertDoseTimes(tx, m.ID, m.Times); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewPersistence(err)
	}
	return nil
}

// UpdateMedication replaces the stored definition of an existing medication.
// Returns ErrNotFound if the id is unknown.
func UpdateMedication(db *sql.DB, m *medication.Medication) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewPersistence(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE medications SET name = ?, dosage = ?, notes = ?, active = ? WHERE id = ?`,
		m.Name, m.Dosage, m.Notes, boolToInt(m.Active), m.ID,
	)
	if err != nil {
		return errors.NewPersistence(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound(m.ID)
	}

	if _, err := tx.Exec(`DELETE FROM dose_times WHERE medication_id = ?`, m.ID); err != nil {
		return errors.NewPersistence(err)
	}
	if err := insertDoseTimes(tx, m.ID, m.Times); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewPersistence(err)
	}
	return nil
}

// SetMedicationActive flips the active flag. Returns false if the id is unknown.
func SetMedicationActive(db *sql.DB, id string, active bool) (bool, error) {
	res, err := db.Exec(`UPDATE medications SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return false, errors.NewPersistence(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected > 0, nil
}

// DeleteMedication hard-deletes a medication and its dose times (cascade).
// Action log entries referencing it are intentionally left untouched.
// Returns false if the id was unknown.
func DeleteMedication(db *sql.DB, id string) (bool, error) {
	res, err := db.Exec(`DELETE FROM medications WHERE id = ?`, id)
	if err != nil {
		return false, errors.NewPersistence(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected > 0, nil
}

// GetMedication retrieves a medication with its dose times.
// Returns (nil, nil) if the id is unknown; callers decide whether that is an
// error (the record op treats it as a silent no-op).
func GetMedication(db *sql.DB, id string) (*medication.Medication, error) {
	row := db.QueryRow(
		`SELECT id, name, dosage, notes, active, created_at FROM medications WHERE id = ?`, id)

	m, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	times, err := doseTimesFor(db, m.ID)
	if err != nil {
		return nil, err
	}
	m.Times = times
	return m, nil
}

// ListMedications returns medications ordered active-first, then by name,
// then by creation time. With activeOnly, paused medications are excluded.
func ListMedications(db *sql.DB, activeOnly bool) ([]*medication.Medication, error) {
	query := `SELECT id, name, dosage, notes, active, created_at FROM medications`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY active DESC, name COLLATE NOCASE ASC, created_at ASC`

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	meds := make([]*medication.Medication, 0)
	byID := make(map[string]*medication.Medication)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		meds = append(meds, m)
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Attach dose times in one pass; dose_times has no independent ordering
	// guarantee, so sort per medication by the primary key order returned.
	timeRows, err := db.Query(
		`SELECT medication_id, time_of_day FROM dose_times ORDER BY medication_id, time_of_day ASC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer timeRows.Close()

	for timeRows.Next() {
		var medID, tod string
		if err := timeRows.Scan(&medID, &tod); err != nil {
			return nil, errors.NewInternal(err)
		}
		if m, ok := byID[medID]; ok {
			m.Times = append(m.Times, tod)
		}
	}
	if err := timeRows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return meds, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanMedication.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(r rowScanner) (*medication.Medication, error) {
	m := &medication.Medication{}
	var active int
	if err := r.Scan(&m.ID, &m.Name, &m.Dosage, &m.Notes, &active, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Active = active != 0
	return m, nil
}

func doseTimesFor(db *sql.DB, medID string) ([]string, error) {
	rows, err := db.Query(
		`SELECT time_of_day FROM dose_times WHERE medication_id = ? ORDER BY time_of_day ASC`, medID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	times := make([]string, 0, 4)
	for rows.Next() {
		var tod string
		if err := rows.Scan(&tod); err != nil {
			return nil, errors.NewInternal(err)
		}
		times = append(times, tod)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return times, nil
}

func insertDoseTimes(tx *sql.Tx, medID string, times []string) error {
	for _, tod := range times {
		if _, err := tx.Exec(
			`INSERT INTO dose_times (medication_id, time_of_day) VALUES (?, ?)`, medID, tod,
		); err != nil {
			return errors.NewPersistence(fmt.Errorf("dose time %s: %w", tod, err))
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
