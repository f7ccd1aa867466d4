package db

import (
	"database/sql"
	"strings"

	"github.com/hpungsan/pillbox/internal/adherence"
	"github.com/hpungsan/pillbox/internal/errors"
)

// AppendEntry appends one record to the action log. The log is append-only;
// the single exception is the destructive undo in DeleteTaken.
func AppendEntry(db *sql.DB, e *adherence.Entry) error {
	_, err := db.Exec(
		`INSERT INTO action_log (id, medication_id, medication_name, action, time_of_day, day, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.MedicationID, e.MedicationName, string(e.Action), e.Time, e.Day, e.RecordedAt,
	)
	if err != nil {
		return errors.NewPersistence(err)
	}
	return nil
}

// TakenExists reports whether an active taken mark exists for the slot on
// the given day. Missed/skipped entries never satisfy this query.
func TakenExists(db *sql.DB, medID, timeOfDay, day string) (bool, error) {
	var one int
	err := db.QueryRow(
		`SELECT 1 FROM action_log
		 WHERE medication_id = ? AND time_of_day = ? AND day = ? AND action = 'taken'
		 LIMIT 1`,
		medID, timeOfDay, day,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// DeleteTaken removes the taken mark(s) for a slot on the given day. This is
// the undo path: the entry is removed outright, not annotated.
func DeleteTaken(db *sql.DB, medID, timeOfDay, day string) (int64, error) {
	res, err := db.Exec(
		`DELETE FROM action_log
		 WHERE medication_id = ? AND time_of_day = ? AND day = ? AND action = 'taken'`,
		medID, timeOfDay, day,
	)
	if err != nil {
		return 0, errors.NewPersistence(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return affected, nil
}

// EntryFilter narrows ListEntries/CountEntries. Zero values mean "no filter".
type EntryFilter struct {
	MedicationID string
	Day          string
	Action       string
	Limit        int // 0 = no limit
	Offset       int
}

// ListEntries returns log entries most recent first. Ties on the recorded
// instant fall back to id descending, which is insertion order for
// monotonically generated ULIDs.
func ListEntries(db *sql.DB, filter EntryFilter) ([]*adherence.Entry, error) {
	where, args := entryWhere(filter)

	query := `SELECT id, medication_id, medication_name, action, time_of_day, day, recorded_at
		 FROM action_log` + where + ` ORDER BY recorded_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	entries := make([]*adherence.Entry, 0)
	for rows.Next() {
		e := &adherence.Entry{}
		var action string
		if err := rows.Scan(&e.ID, &e.MedicationID, &e.MedicationName, &action, &e.Time, &e.Day, &e.RecordedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		e.Action = adherence.Action(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

// CountEntries returns the number of log entries matching the filter
// (ignoring limit/offset).
func CountEntries(db *sql.DB, filter EntryFilter) (int, error) {
	filter.Limit = 0
	filter.Offset = 0
	where, args := entryWhere(filter)

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM action_log`+where, args...).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

func entryWhere(filter EntryFilter) (string, []any) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if filter.MedicationID != "" {
		conds = append(conds, "medication_id = ?")
		args = append(args, filter.MedicationID)
	}
	if filter.Day != "" {
		conds = append(conds, "day = ?")
		args = append(args, filter.Day)
	}
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, filter.Action)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
