package ops

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hpungsan/pillbox/internal/adherence"
	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/medication"
	"github.com/hpungsan/pillbox/internal/settings"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Medications int `json:"medications"`
	Entries     int `json:"entries"`
}

// Import replaces the entire dataset with an export document. The document
// is shape-checked and fully decoded before any write; the replacement
// itself runs in one transaction, so a malformed or partially valid file
// leaves the existing data untouched.
func Import(database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}

	doc, err := parseExportDocument(data)
	if err != nil {
		return nil, err
	}

	meds, entries, s, err := documentToDomain(doc)
	if err != nil {
		return nil, err
	}

	if err := db.ReplaceAll(database, meds, entries, s); err != nil {
		return nil, err
	}

	return &ImportOutput{Medications: len(meds), Entries: len(entries)}, nil
}

// parseExportDocument shape-checks before decoding: the top level must be an
// object with medications and log as arrays and settings as an object.
// Anything else is IMPORT_MALFORMED, not a crash or a partial import.
func parseExportDocument(data []byte) (*ExportDocument, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewImportMalformed(fmt.Sprintf("not a JSON object: %v", err))
	}

	for _, field := range []string{"medications", "log"} {
		msg, ok := raw[field]
		if !ok {
			return nil, errors.NewImportMalformed(fmt.Sprintf("missing %q field", field))
		}
		if !startsWith(msg, '[') {
			return nil, errors.NewImportMalformed(fmt.Sprintf("%q must be an array", field))
		}
	}
	if msg, ok := raw["settings"]; ok && !startsWith(msg, '{') {
		return nil, errors.NewImportMalformed(`"settings" must be an object`)
	}

	var doc ExportDocument
	doc.Settings = settings.Default()
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewImportMalformed(fmt.Sprintf("invalid document: %v", err))
	}
	return &doc, nil
}

func documentToDomain(doc *ExportDocument) ([]*medication.Medication, []*adherence.Entry, settings.Settings, error) {
	var zero settings.Settings

	meds := make([]*medication.Medication, 0, len(doc.Medications))
	seen := make(map[string]bool, len(doc.Medications))
	for i, item := range doc.Medications {
		if item.ID == "" {
			return nil, nil, zero, errors.NewImportMalformed(fmt.Sprintf("medication %d: missing id", i))
		}
		if seen[item.ID] {
			return nil, nil, zero, errors.NewImportMalformed(fmt.Sprintf("medication %d: duplicate id %q", i, item.ID))
		}
		seen[item.ID] = true

		name := medication.NormalizeName(item.Name)
		if name == "" {
			return nil, nil, zero, errors.NewImportMalformed(fmt.Sprintf("medication %q: missing name", item.ID))
		}
		times, err := medication.NormalizeTimes(item.Times)
		if err != nil {
			return nil, nil, zero, errors.NewImportMalformed(fmt.Sprintf("medication %q: %v", item.ID, err))
		}

		meds = append(meds, &medication.Medication{
			ID:        item.ID,
			Name:      name,
			Dosage:    item.Dosage,
			Times:     times,
			Notes:     item.Notes,
			Active:    item.Active,
			CreatedAt: item.CreatedAt,
		})
	}

	entries := make([]*adherence.Entry, 0, len(doc.Log))
	for i, item := range doc.Log {
		if item.ID == "" {
			return nil, nil, zero, errors.NewImportMalformed(fmt.Sprintf("log entry %d: missing id", i))
		}
		if !adherence.Action(item.Action).Valid() {
			return nil, nil, zero, errors.NewImportMalformed(fmt.Sprintf("log entry %q: invalid action %q", item.ID, item.Action))
		}
		entries = append(entries, &adherence.Entry{
			ID:             item.ID,
			MedicationID:   item.MedicationID,
			MedicationName: item.MedicationName,
			Action:         adherence.Action(item.Action),
			Time:           item.Time,
			Day:            item.Day,
			RecordedAt:     item.RecordedAt,
		})
	}

	s := doc.Settings
	if s.TextSize == "" {
		s.TextSize = settings.TextMedium
	}
	if err := s.Validate(); err != nil {
		return nil, nil, zero, errors.NewImportMalformed(err.Error())
	}

	return meds, entries, s, nil
}

func startsWith(msg json.RawMessage, b byte) bool {
	for _, c := range msg {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c == b
		}
	}
	return false
}
