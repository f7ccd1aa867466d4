package settings

import "fmt"

// Text size options for the web UI.
const (
	TextSmall  = "small"
	TextMedium = "medium"
	TextLarge  = "large"
)

// Settings holds user preferences. They are persisted with the data (not in
// config.json) so export/import round-trips them.
type Settings struct {
	// Sound enables the audible cue on reminders
	Sound bool `json:"sound"`

	// Vibration enables the vibration cue on reminders (host-dependent)
	Vibration bool `json:"vibration"`

	// HighContrast enables the high-contrast web theme
	HighContrast bool `json:"high_contrast"`

	// TextSize is one of "small", "medium", "large"
	TextSize string `json:"text_size"`
}

// Default returns the initial settings for a fresh database.
func Default() Settings {
	return Settings{
		Sound:     true,
		Vibration: true,
		TextSize:  TextMedium,
	}
}

// ValidTextSize reports whether s is a known text size.
func ValidTextSize(s string) bool {
	switch s {
	case TextSmall, TextMedium, TextLarge:
		return true
	}
	return false
}

// Validate checks field values, returning a plain error naming the field.
func (s Settings) Validate() error {
	if !ValidTextSize(s.TextSize) {
		return fmt.Errorf("text_size must be one of: %s, %s, %s", TextSmall, TextMedium, TextLarge)
	}
	return nil
}
