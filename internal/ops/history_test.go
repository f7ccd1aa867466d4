package ops

import (
	"testing"

	"github.com/hpungsan/pillbox/internal/errors"
)

func TestHistory_OrderAndPagination(t *testing.T) {
	database := testDB(t)
	id := addMed(t, database, "Aspirin", "08:00")

	for i := 0; i < 5; i++ {
		if _, err := Record(database, RecordInput{ID: id, Time: "08:00", Action: "skipped"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	page1, err := History(database, HistoryInput{Limit: 2})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(page1.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(page1.Entries))
	}
	if !page1.Pagination.HasMore || page1.Pagination.Total != 5 {
		t.Errorf("pagination = %+v", page1.Pagination)
	}

	// Most recent first
	if page1.Entries[0].RecordedAt < page1.Entries[1].RecordedAt {
		t.Error("entries not ordered most recent first")
	}

	page3, err := History(database, HistoryInput{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(page3.Entries) != 1 || page3.Pagination.HasMore {
		t.Errorf("last page = %d entries, HasMore = %v", len(page3.Entries), page3.Pagination.HasMore)
	}
}

func TestHistory_Filters(t *testing.T) {
	database := testDB(t)
	a := addMed(t, database, "Aspirin", "08:00")
	b := addMed(t, database, "Metformin", "08:00")
	markTaken(t, database, a, "08:00")
	if _, err := Record(database, RecordInput{ID: b, Time: "08:00", Action: "missed"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	byMed, err := History(database, HistoryInput{MedicationID: a})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(byMed.Entries) != 1 || byMed.Entries[0].MedicationID != a {
		t.Errorf("byMed = %+v", byMed.Entries)
	}

	byAction, err := History(database, HistoryInput{Action: "missed"})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(byAction.Entries) != 1 || byAction.Entries[0].Action != "missed" {
		t.Errorf("byAction = %+v", byAction.Entries)
	}
}

func TestHistory_DefaultAndMaxLimit(t *testing.T) {
	database := testDB(t)

	out, err := History(database, HistoryInput{})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if out.Pagination.Limit != DefaultHistoryLimit {
		t.Errorf("Limit = %d, want default %d", out.Pagination.Limit, DefaultHistoryLimit)
	}

	out, err = History(database, HistoryInput{Limit: 10000})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if out.Pagination.Limit != MaxHistoryLimit {
		t.Errorf("Limit = %d, want cap %d", out.Pagination.Limit, MaxHistoryLimit)
	}
}

func TestHistory_InvalidAction(t *testing.T) {
	database := testDB(t)

	_, err := History(database, HistoryInput{Action: "snoozed"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}
