package ops

import (
	"testing"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/settings"
)

func boolPtr(b bool) *bool { return &b }

func TestGetSettings_Defaults(t *testing.T) {
	database := testDB(t)

	out, err := GetSettings(database)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if out.Settings != settings.Default() {
		t.Errorf("settings = %+v, want defaults", out.Settings)
	}
}

func TestSetSettings_Partial(t *testing.T) {
	database := testDB(t)

	out, err := SetSettings(database, SetSettingsInput{
		Sound:    boolPtr(false),
		TextSize: strPtr(settings.TextLarge),
	})
	if err != nil {
		t.Fatalf("SetSettings failed: %v", err)
	}
	if out.Settings.Sound {
		t.Error("Sound = true, want false")
	}
	if !out.Settings.Vibration {
		t.Error("Vibration = false, want unchanged default")
	}
	if out.Settings.TextSize != settings.TextLarge {
		t.Errorf("TextSize = %q", out.Settings.TextSize)
	}

	got, err := GetSettings(database)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got.Settings != out.Settings {
		t.Errorf("persisted = %+v, want %+v", got.Settings, out.Settings)
	}
}

func TestSetSettings_InvalidTextSize(t *testing.T) {
	database := testDB(t)

	_, err := SetSettings(database, SetSettingsInput{TextSize: strPtr("huge")})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}
