package db

import (
	"database/sql"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/settings"
)

// GetSettings reads the singleton settings row.
func GetSettings(db *sql.DB) (settings.Settings, error) {
	var s settings.Settings
	var sound, vibration, highContrast int
	err := db.QueryRow(
		`SELECT sound, vibration, high_contrast, text_size FROM settings WHERE id = 1`,
	).Scan(&sound, &vibration, &highContrast, &s.TextSize)
	if err == sql.ErrNoRows {
		// Row is seeded by migration; a missing row means a fresh table.
		return settings.Default(), nil
	}
	if err != nil {
		return settings.Settings{}, errors.NewInternal(err)
	}
	s.Sound = sound != 0
	s.Vibration = vibration != 0
	s.HighContrast = highContrast != 0
	return s, nil
}

// SaveSettings writes the singleton settings row.
func SaveSettings(db *sql.DB, s settings.Settings) error {
	_, err := db.Exec(
		`INSERT INTO settings (id, sound, vibration, high_contrast, text_size)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   sound = excluded.sound,
		   vibration = excluded.vibration,
		   high_contrast = excluded.high_contrast,
		   text_size = excluded.text_size`,
		boolToInt(s.Sound), boolToInt(s.Vibration), boolToInt(s.HighContrast), s.TextSize,
	)
	if err != nil {
		return errors.NewPersistence(err)
	}
	return nil
}
