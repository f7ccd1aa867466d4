package ops

import (
	"crypto/rand"
	stderrors "errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/pillbox/internal/adherence"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
)

// Pagination limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Slot statuses as reported to callers. Missed/skipped entries are
// historical annotations only and never surface here.
const (
	StatusTaken    = "taken"
	StatusUnmarked = "unmarked"
)

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// today returns the current calendar day in the local wall clock.
func today() string {
	return adherence.Day(time.Now())
}

// normalizeTimes maps medication validation failures onto the error taxonomy.
func normalizeTimes(times []string) ([]string, error) {
	normalized, err := medication.NormalizeTimes(times)
	if err != nil {
		var dup *medication.DuplicateTimeError
		if stderrors.As(err, &dup) {
			return nil, errors.NewDuplicateDoseTime(dup.Time)
		}
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return normalized, nil
}
