// Package notify delivers dose reminders to the user.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hpungsan/pillbox/internal/settings"
)

// Reminder describes one dose that is due now.
type Reminder struct {
	MedicationID string
	Name         string
	Dosage       string
	Time         string // "HH:MM" slot that fired
	At           time.Time
}

// Notifier delivers a reminder. Delivery failures are the notifier's problem;
// the scheduler re-arms regardless.
type Notifier interface {
	Notify(r Reminder)
}

// SettingsFunc supplies the current preferences at delivery time, so a
// settings change applies to the next reminder without restarting the loop.
type SettingsFunc func() settings.Settings

// ConsoleNotifier prints reminders to a writer. It is the delivery mechanism
// for the long-running remind command.
type ConsoleNotifier struct {
	mu       sync.Mutex
	out      io.Writer
	settings SettingsFunc
}

// NewConsoleNotifier creates a console notifier. settingsFn may be nil, in
// which case defaults apply.
func NewConsoleNotifier(out io.Writer, settingsFn SettingsFunc) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, settings: settingsFn}
}

// Notify implements Notifier.
func (n *ConsoleNotifier) Notify(r Reminder) {
	s := settings.Default()
	if n.settings != nil {
		s = n.settings()
	}

	line := fmt.Sprintf("[%s] %s reminder: %s", r.At.Format("15:04"), r.Time, r.Name)
	if r.Dosage != "" {
		line += " (" + r.Dosage + ")"
	}
	if s.Vibration {
		line += " [vibrate]"
	}
	if s.Sound {
		line += "\a"
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, line)
}
