package medication

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Medication is a single medication definition with its recurring dose times.
type Medication struct {
	// ID is a ULID that uniquely identifies this medication
	ID string

	// Name is the display name (trimmed, internal whitespace collapsed)
	Name string

	// Dosage is free-form dosage text, e.g. "81mg" (optional)
	Dosage string

	// Times holds the daily dose times as zero-padded "HH:MM" strings,
	// sorted ascending and distinct
	Times []string

	// Notes is optional markdown with instructions ("take with food")
	Notes string

	// Active controls whether the medication appears in the daily schedule
	Active bool

	// CreatedAt is the Unix timestamp when the medication was created
	CreatedAt int64
}

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName trims and collapses internal whitespace. Case is kept as
// entered; medication names are display text, not lookup keys.
func NormalizeName(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// DuplicateTimeError reports a dose time that appears more than once in a
// single medication.
type DuplicateTimeError struct {
	Time string
}

func (e *DuplicateTimeError) Error() string {
	return fmt.Sprintf("duplicate dose time %s", e.Time)
}

// ParseTime validates a time-of-day string and returns it zero-padded as
// "HH:MM" (24-hour, no seconds). "8:00" and "08:00" are both accepted.
func ParseTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid dose time %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid dose time %q: hour out of range", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid dose time %q: minute out of range", s)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// NormalizeTimes parses every dose time, rejects duplicates within the
// medication, and returns the set sorted ascending. Zero-padded "HH:MM"
// sorts correctly as a plain string.
func NormalizeTimes(times []string) ([]string, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("at least one dose time is required")
	}
	seen := make(map[string]bool, len(times))
	normalized := make([]string, 0, len(times))
	for _, t := range times {
		parsed, err := ParseTime(t)
		if err != nil {
			return nil, err
		}
		if seen[parsed] {
			return nil, &DuplicateTimeError{Time: parsed}
		}
		seen[parsed] = true
		normalized = append(normalized, parsed)
	}
	sort.Strings(normalized)
	return normalized, nil
}

// HasTime reports whether the medication has the given dose time configured.
func (m *Medication) HasTime(timeOfDay string) bool {
	for _, t := range m.Times {
		if t == timeOfDay {
			return true
		}
	}
	return false
}
