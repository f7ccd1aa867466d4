package schedule

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/medication"
	"github.com/hpungsan/pillbox/internal/notify"
)

func TestNextOccurrence(t *testing.T) {
	loc := time.Local
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, loc)

	tests := []struct {
		tod  string
		want time.Time
	}{
		{"10:00", time.Date(2026, 3, 1, 10, 0, 0, 0, loc)},  // later today
		{"09:30", time.Date(2026, 3, 2, 9, 30, 0, 0, loc)},  // exactly now -> tomorrow
		{"08:00", time.Date(2026, 3, 2, 8, 0, 0, 0, loc)},   // earlier today -> tomorrow
		{"00:00", time.Date(2026, 3, 2, 0, 0, 0, 0, loc)},   // midnight
		{"23:59", time.Date(2026, 3, 1, 23, 59, 0, 0, loc)}, // end of day
	}
	for _, tt := range tests {
		got, err := NextOccurrence(now, tt.tod)
		if err != nil {
			t.Fatalf("NextOccurrence(%s) failed: %v", tt.tod, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("NextOccurrence(%s) = %v, want %v", tt.tod, got, tt.want)
		}
	}
}

func TestNextOccurrence_MonthBoundary(t *testing.T) {
	now := time.Date(2026, 2, 28, 23, 0, 0, 0, time.Local)
	got, err := NextOccurrence(now, "08:00")
	if err != nil {
		t.Fatalf("NextOccurrence failed: %v", err)
	}
	want := time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNextOccurrence_Invalid(t *testing.T) {
	for _, bad := range []string{"", "8", "24:00", "08:60", "ab:cd"} {
		if _, err := NextOccurrence(time.Now(), bad); err == nil {
			t.Errorf("NextOccurrence(%q) succeeded, want error", bad)
		}
	}
}

// fakeClock provides manual timers and a settable now for deterministic
// scheduler tests.
type fakeClock struct {
	mu      sync.Mutex
	current time.Time
	pending map[int]func()
	nextID  int
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{current: now, pending: make(map[int]func())}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

func (c *fakeClock) start(d time.Duration, fn func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.pending[id] = fn
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, ok := c.pending[id]
		delete(c.pending, id)
		return ok
	}
}

// fireAll runs every pending timer callback once.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.pending))
	for id, fn := range c.pending {
		fns = append(fns, fn)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *fakeClock) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

type captureNotifier struct {
	mu        sync.Mutex
	reminders []notify.Reminder
}

func (n *captureNotifier) Notify(r notify.Reminder) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, r)
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reminders)
}

func testSetup(t *testing.T) (*sql.DB, *Scheduler, *fakeClock, *captureNotifier) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	clock := newFakeClock(time.Date(2026, 3, 1, 7, 0, 0, 0, time.Local))
	notifier := &captureNotifier{}
	s := New(database, notifier)
	s.now = clock.now
	s.start = clock.start
	s.SetPermission(true)
	return database, s, clock, notifier
}

func insertMed(t *testing.T, database *sql.DB, id, name string, times ...string) {
	t.Helper()
	err := db.InsertMedication(database, &medication.Medication{
		ID: id, Name: name, Dosage: "10mg", Times: times, Active: true,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("InsertMedication failed: %v", err)
	}
}

func TestScheduler_ArmAll(t *testing.T) {
	database, s, _, _ := testSetup(t)
	insertMed(t, database, "01A", "Aspirin", "08:00", "20:00")
	insertMed(t, database, "01B", "Metformin", "08:00")

	if err := s.ArmAll(); err != nil {
		t.Fatalf("ArmAll failed: %v", err)
	}

	slots := s.ArmedSlots()
	if len(slots) != 3 {
		t.Fatalf("armed slots = %d, want 3", len(slots))
	}

	// now is 07:00, so every 08:00 target is today
	target, ok := s.NextFire(Slot{MedicationID: "01A", Time: "08:00"})
	if !ok {
		t.Fatal("slot not armed")
	}
	want := time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)
	if !target.Equal(want) {
		t.Errorf("target = %v, want %v", target, want)
	}
}

// Arming twice replaces the timer instead of stacking a duplicate.
func TestScheduler_ArmReplaces(t *testing.T) {
	database, s, clock, notifier := testSetup(t)
	insertMed(t, database, "01A", "Aspirin", "08:00")

	slot := Slot{MedicationID: "01A", Time: "08:00"}
	if err := s.Arm(slot); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if err := s.Arm(slot); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if got := clock.pendingCount(); got != 1 {
		t.Fatalf("pending timers = %d, want 1", got)
	}

	clock.set(time.Date(2026, 3, 1, 8, 0, 0, 1, time.Local))
	clock.fireAll()
	if notifier.count() != 1 {
		t.Errorf("reminders = %d, want exactly 1", notifier.count())
	}
}

// ArmAll after a fire-and-re-arm cycle must not produce a second timer for
// the slot, so no slot can fire twice for the same occurrence.
func TestScheduler_ArmAllIdempotent(t *testing.T) {
	database, s, clock, _ := testSetup(t)
	insertMed(t, database, "01A", "Aspirin", "08:00")

	for i := 0; i < 3; i++ {
		if err := s.ArmAll(); err != nil {
			t.Fatalf("ArmAll failed: %v", err)
		}
	}
	if got := clock.pendingCount(); got != 1 {
		t.Errorf("pending timers = %d, want 1", got)
	}
}

func TestScheduler_FireAndRearm(t *testing.T) {
	database, s, clock, notifier := testSetup(t)
	insertMed(t, database, "01A", "Aspirin", "08:00")

	slot := Slot{MedicationID: "01A", Time: "08:00"}
	if err := s.Arm(slot); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}

	clock.set(time.Date(2026, 3, 1, 8, 0, 0, 1, time.Local))
	clock.fireAll()

	if notifier.count() != 1 {
		t.Fatalf("reminders = %d, want 1", notifier.count())
	}

	// Re-armed for tomorrow, from the fresh wall clock
	target, ok := s.NextFire(slot)
	if !ok {
		t.Fatal("slot not re-armed after fire")
	}
	want := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	if !target.Equal(want) {
		t.Errorf("target = %v, want %v", target, want)
	}
}

func TestScheduler_FireDropsRemovedMedication(t *testing.T) {
	database, s, clock, notifier := testSetup(t)
	insertMed(t, database, "01A", "Aspirin", "08:00")

	slot := Slot{MedicationID: "01A", Time: "08:00"}
	if err := s.Arm(slot); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}

	if _, err := db.DeleteMedication(database, "01A"); err != nil {
		t.Fatalf("DeleteMedication failed: %v", err)
	}

	clock.set(time.Date(2026, 3, 1, 8, 0, 0, 1, time.Local))
	clock.fireAll()

	if notifier.count() != 0 {
		t.Errorf("reminders = %d, want 0 for removed medication", notifier.count())
	}
	if _, ok := s.NextFire(slot); ok {
		t.Error("slot still armed after medication removal")
	}
}

func TestScheduler_FireDropsPausedMedication(t *testing.T) {
	database, s, clock, notifier := testSetup(t)
	insertMed(t, database, "01A", "Aspirin", "08:00")

	slot := Slot{MedicationID: "01A", Time: "08:00"}
	if err := s.Arm(slot); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if _, err := db.SetMedicationActive(database, "01A", false); err != nil {
		t.Fatalf("SetMedicationActive failed: %v", err)
	}

	clock.set(time.Date(2026, 3, 1, 8, 0, 0, 1, time.Local))
	clock.fireAll()

	if notifier.count() != 0 {
		t.Errorf("reminders = %d, want 0 for paused medication", notifier.count())
	}
}

// Without permission the loop stays silent but keeps cycling.
func TestScheduler_PermissionGate(t *testing.T) {
	database, s, clock, notifier := testSetup(t)
	insertMed(t, database, "01A", "Aspirin", "08:00")
	s.SetPermission(false)

	slot := Slot{MedicationID: "01A", Time: "08:00"}
	if err := s.Arm(slot); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}

	clock.set(time.Date(2026, 3, 1, 8, 0, 0, 1, time.Local))
	clock.fireAll()

	if notifier.count() != 0 {
		t.Errorf("reminders = %d with permission revoked, want 0", notifier.count())
	}
	if _, ok := s.NextFire(slot); !ok {
		t.Error("slot not re-armed while permission revoked")
	}

	// Granting permission needs no re-arm
	s.SetPermission(true)
	clock.set(time.Date(2026, 3, 2, 8, 0, 0, 1, time.Local))
	clock.fireAll()
	if notifier.count() != 1 {
		t.Errorf("reminders = %d after re-grant, want 1", notifier.count())
	}
}

func TestScheduler_ArmAllPrunes(t *testing.T) {
	database, s, _, _ := testSetup(t)
	insertMed(t, database, "01A", "Aspirin", "08:00", "20:00")

	if err := s.ArmAll(); err != nil {
		t.Fatalf("ArmAll failed: %v", err)
	}
	if err := db.UpdateMedication(database, &medication.Medication{
		ID: "01A", Name: "Aspirin", Times: []string{"08:00"}, Active: true,
	}); err != nil {
		t.Fatalf("UpdateMedication failed: %v", err)
	}
	if err := s.ArmAll(); err != nil {
		t.Fatalf("ArmAll failed: %v", err)
	}

	if _, ok := s.NextFire(Slot{MedicationID: "01A", Time: "20:00"}); ok {
		t.Error("dropped dose time still armed after ArmAll")
	}
	if _, ok := s.NextFire(Slot{MedicationID: "01A", Time: "08:00"}); !ok {
		t.Error("surviving dose time not armed")
	}
}

func TestScheduler_Stop(t *testing.T) {
	database, s, clock, notifier := testSetup(t)
	insertMed(t, database, "01A", "Aspirin", "08:00")

	if err := s.ArmAll(); err != nil {
		t.Fatalf("ArmAll failed: %v", err)
	}
	s.Stop()

	if len(s.ArmedSlots()) != 0 {
		t.Error("slots remain after Stop")
	}
	clock.set(time.Date(2026, 3, 1, 8, 0, 0, 1, time.Local))
	clock.fireAll()
	if notifier.count() != 0 {
		t.Errorf("reminders = %d after Stop, want 0", notifier.count())
	}
}
