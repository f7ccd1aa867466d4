package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/settings"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: ~/.pillbox/exports/pillbox-<timestamp>.json
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path        string `json:"path"`
	Medications int    `json:"medications"`
	Entries     int    `json:"entries"`
	ExportedAt  int64  `json:"exported_at"`
}

// ExportDocument is the on-disk export format: one JSON document holding the
// whole dataset. Import replaces everything with it wholesale.
type ExportDocument struct {
	PillboxExport bool              `json:"pillbox_export"`
	SchemaVersion string            `json:"schema_version"`
	ExportedAt    int64             `json:"exported_at"`
	Medications   []MedicationItem  `json:"medications"`
	Log           []HistoryEntry    `json:"log"`
	Settings      settings.Settings `json:"settings"`
}

// SchemaVersion is the export document schema version.
const SchemaVersion = "1.0"

// Export writes the full dataset (medications including paused, the complete
// action log, and settings) to a JSON file. The document is written to a
// temp file and renamed into place, so a failure partway never clobbers an
// existing export.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(now)
		if err != nil {
			return nil, err
		}
	}

	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	doc, err := buildExportDocument(ctx, database, now)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return nil, errors.NewInternal(err)
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before the rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:        exportPath,
		Medications: len(doc.Medications),
		Entries:     len(doc.Log),
		ExportedAt:  doc.ExportedAt,
	}, nil
}

func buildExportDocument(ctx context.Context, database *sql.DB, now time.Time) (*ExportDocument, error) {
	meds, err := db.ListMedications(database, false)
	if err != nil {
		return nil, err
	}
	entries, err := db.ListEntries(database, db.EntryFilter{})
	if err != nil {
		return nil, err
	}
	s, err := db.GetSettings(database)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, errors.NewInternal(ctx.Err())
	default:
	}

	doc := &ExportDocument{
		PillboxExport: true,
		SchemaVersion: SchemaVersion,
		ExportedAt:    now.Unix(),
		Medications:   make([]MedicationItem, 0, len(meds)),
		Log:           make([]HistoryEntry, 0, len(entries)),
		Settings:      s,
	}
	for _, m := range meds {
		doc.Medications = append(doc.Medications, MedicationItem{
			ID:        m.ID,
			Name:      m.Name,
			Dosage:    m.Dosage,
			Times:     m.Times,
			Notes:     m.Notes,
			Active:    m.Active,
			CreatedAt: m.CreatedAt,
		})
	}
	for _, e := range entries {
		doc.Log = append(doc.Log, HistoryEntry{
			ID:             e.ID,
			MedicationID:   e.MedicationID,
			MedicationName: e.MedicationName,
			Action:         string(e.Action),
			Time:           e.Time,
			Day:            e.Day,
			RecordedAt:     e.RecordedAt,
		})
	}
	return doc, nil
}

// defaultExportPath generates the default export path:
// ~/.pillbox/exports/pillbox-<timestamp>.json
func defaultExportPath(now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("pillbox-%s.json", now.Format("2006-01-02T150405"))
	return filepath.Join(dir, filename), nil
}
