package ops

import (
	"database/sql"
	"testing"
	"time"

	"github.com/hpungsan/pillbox/internal/adherence"
	"github.com/hpungsan/pillbox/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func addMed(t *testing.T, database *sql.DB, name string, times ...string) string {
	t.Helper()
	out, err := Add(database, AddInput{Name: name, Dosage: "10mg", Times: times})
	if err != nil {
		t.Fatalf("Add(%s) failed: %v", name, err)
	}
	return out.ID
}

func markTaken(t *testing.T, database *sql.DB, id, tod string) {
	t.Helper()
	out, err := Record(database, RecordInput{ID: id, Time: tod, Action: "taken"})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !out.Recorded {
		t.Fatalf("Record did not record: %+v", out)
	}
}

// appendOnDay bypasses the ops layer to plant an entry on an arbitrary day,
// for date-boundary tests.
func appendOnDay(t *testing.T, database *sql.DB, medID, tod, day string) {
	t.Helper()
	id, err := generateULID()
	if err != nil {
		t.Fatalf("generateULID failed: %v", err)
	}
	err = db.AppendEntry(database, &adherence.Entry{
		ID:           id,
		MedicationID: medID,
		Action:       adherence.ActionTaken,
		Time:         tod,
		Day:          day,
		RecordedAt:   time.Now().UnixNano(),
	})
	if err != nil {
		t.Fatalf("AppendEntry failed: %v", err)
	}
}

func slotStatus(t *testing.T, database *sql.DB, id, tod string) string {
	t.Helper()
	out, err := Status(database, StatusInput{ID: id, Time: tod})
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	return out.Status
}
