package ops

import (
	"database/sql"

	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/settings"
)

// GetSettingsOutput contains the result of the GetSettings operation.
type GetSettingsOutput struct {
	Settings settings.Settings `json:"settings"`
}

// GetSettings returns the stored user preferences.
func GetSettings(database *sql.DB) (*GetSettingsOutput, error) {
	s, err := db.GetSettings(database)
	if err != nil {
		return nil, err
	}
	return &GetSettingsOutput{Settings: s}, nil
}

// SetSettingsInput contains parameters for the SetSettings operation.
// Nil fields are left unchanged.
type SetSettingsInput struct {
	Sound        *bool
	Vibration    *bool
	HighContrast *bool
	TextSize     *string
}

// SetSettingsOutput contains the result of the SetSettings operation.
type SetSettingsOutput struct {
	Settings settings.Settings `json:"settings"`
}

// SetSettings applies a partial update to the stored preferences.
func SetSettings(database *sql.DB, input SetSettingsInput) (*SetSettingsOutput, error) {
	s, err := db.GetSettings(database)
	if err != nil {
		return nil, err
	}

	if input.Sound != nil {
		s.Sound = *input.Sound
	}
	if input.Vibration != nil {
		s.Vibration = *input.Vibration
	}
	if input.HighContrast != nil {
		s.HighContrast = *input.HighContrast
	}
	if input.TextSize != nil {
		s.TextSize = *input.TextSize
	}

	if err := s.Validate(); err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	if err := db.SaveSettings(database, s); err != nil {
		return nil, err
	}
	return &SetSettingsOutput{Settings: s}, nil
}
