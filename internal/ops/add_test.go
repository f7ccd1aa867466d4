package ops

import (
	"reflect"
	"testing"

	"github.com/hpungsan/pillbox/internal/errors"
)

func TestAdd(t *testing.T) {
	database := testDB(t)

	out, err := Add(database, AddInput{
		Name:  "  Aspirin  ",
		Times: []string{"20:00", "8:00"},
		Notes: "with food",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if out.ID == "" {
		t.Error("ID is empty")
	}
	if out.Name != "Aspirin" {
		t.Errorf("Name = %q, want %q (normalized)", out.Name, "Aspirin")
	}
	if !reflect.DeepEqual(out.Times, []string{"08:00", "20:00"}) {
		t.Errorf("Times = %v, want zero-padded sorted", out.Times)
	}
}

func TestAdd_EmptyName(t *testing.T) {
	database := testDB(t)

	_, err := Add(database, AddInput{Name: "   ", Times: []string{"08:00"}})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestAdd_NoTimes(t *testing.T) {
	database := testDB(t)

	_, err := Add(database, AddInput{Name: "Aspirin"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestAdd_DuplicateTime(t *testing.T) {
	database := testDB(t)

	// 8:00 and 08:00 collide after normalization
	_, err := Add(database, AddInput{Name: "Aspirin", Times: []string{"8:00", "08:00"}})
	if !errors.Is(err, errors.ErrDuplicateDoseTime) {
		t.Errorf("err = %v, want DUPLICATE_DOSE_TIME", err)
	}

	// Rejected add must not leave a partial medication behind
	list, err := List(database, ListInput{All: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list.Total != 0 {
		t.Errorf("Total = %d after rejected add, want 0", list.Total)
	}
}

func TestAdd_BadTime(t *testing.T) {
	database := testDB(t)

	for _, bad := range []string{"24:00", "8:5", "0800", "8am", ""} {
		_, err := Add(database, AddInput{Name: "Aspirin", Times: []string{bad}})
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("Add with time %q: err = %v, want INVALID_REQUEST", bad, err)
		}
	}
}
