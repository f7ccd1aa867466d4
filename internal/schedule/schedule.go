// Package schedule runs the self-re-arming reminder loop. Each (medication,
// dose time) pair is a slot with its own timer: ARMED, fire, re-ARMED for
// the next calendar day. Nothing about the schedule is persisted; the timer
// set is derived from the medication store and rebuilt on demand.
package schedule

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/notify"
)

// Slot identifies one recurring reminder.
type Slot struct {
	MedicationID string
	Time         string // "HH:MM"
}

// NextOccurrence returns the next instant the dose time comes around:
// today at tod if that is strictly after now, otherwise tomorrow at tod.
// The target is built with calendar date math rather than adding 24h, so a
// DST transition between now and the target cannot skew the fire time.
func NextOccurrence(now time.Time, tod string) (time.Time, error) {
	hour, minute, err := splitTime(tod)
	if err != nil {
		return time.Time{}, err
	}

	loc := now.Location()
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if !target.After(now) {
		target = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, loc)
	}
	return target, nil
}

func splitTime(tod string) (hour, minute int, err error) {
	parts := strings.SplitN(tod, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q", tod)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", tod)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", tod)
	}
	return hour, minute, nil
}

type armedTimer struct {
	target time.Time
	stop   func() bool
}

// StartTimerFunc starts a timer that calls fn after d. Production code uses
// time.AfterFunc; tests substitute an immediate or manual trigger.
type StartTimerFunc func(d time.Duration, fn func()) (stop func() bool)

// Scheduler owns the timer set. All methods are safe for concurrent use.
type Scheduler struct {
	database *sql.DB
	notifier notify.Notifier

	mu         sync.Mutex
	timers     map[Slot]*armedTimer
	permission bool

	now   func() time.Time
	start StartTimerFunc
}

// New creates a scheduler with notifications suppressed until SetPermission
// grants them.
func New(database *sql.DB, notifier notify.Notifier) *Scheduler {
	return &Scheduler{
		database: database,
		notifier: notifier,
		timers:   make(map[Slot]*armedTimer),
		now:      time.Now,
		start: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
	}
}

// SetPermission grants or revokes reminder emission. Revoking does not tear
// down timers: slots keep cycling silently so that re-granting permission
// needs no re-arm.
func (s *Scheduler) SetPermission(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permission = granted
}

// Arm schedules the slot for its next occurrence. An existing timer for the
// same slot is replaced, never stacked, so repeated arming cannot produce
// duplicate fires.
func (s *Scheduler) Arm(slot Slot) error {
	now := s.now()
	target, err := NextOccurrence(now, slot.Time)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.armLocked(slot, now, target)
	return nil
}

func (s *Scheduler) armLocked(slot Slot, now, target time.Time) {
	if existing, ok := s.timers[slot]; ok {
		existing.stop()
	}
	stop := s.start(target.Sub(now), func() { s.fire(slot) })
	s.timers[slot] = &armedTimer{target: target, stop: stop}
}

// ArmAll derives the timer set from the medication store: one slot per
// (active medication, dose time). Slots no longer backed by the store are
// pruned; existing slots are re-armed in place. Idempotent.
func (s *Scheduler) ArmAll() error {
	meds, err := db.ListMedications(s.database, true)
	if err != nil {
		return err
	}

	wanted := make(map[Slot]bool)
	for _, m := range meds {
		for _, tod := range m.Times {
			wanted[Slot{MedicationID: m.ID, Time: tod}] = true
		}
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for slot, timer := range s.timers {
		if !wanted[slot] {
			timer.stop()
			delete(s.timers, slot)
		}
	}
	for slot := range wanted {
		target, err := NextOccurrence(now, slot.Time)
		if err != nil {
			return err
		}
		s.armLocked(slot, now, target)
	}
	return nil
}

// Disarm cancels the slot's timer if armed.
func (s *Scheduler) Disarm(slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[slot]; ok {
		timer.stop()
		delete(s.timers, slot)
	}
}

// Stop cancels every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slot, timer := range s.timers {
		timer.stop()
		delete(s.timers, slot)
	}
}

// NextFire returns the armed target for a slot, or false if the slot is not
// armed.
func (s *Scheduler) NextFire(slot Slot) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.timers[slot]
	if !ok {
		return time.Time{}, false
	}
	return timer.target, true
}

// ArmedSlots returns the armed slots sorted by target time, then medication
// id. Backs the upcoming CLI view.
func (s *Scheduler) ArmedSlots() []SlotInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]SlotInfo, 0, len(s.timers))
	for slot, timer := range s.timers {
		infos = append(infos, SlotInfo{Slot: slot, Target: timer.target})
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].Target.Equal(infos[j].Target) {
			return infos[i].Target.Before(infos[j].Target)
		}
		return infos[i].MedicationID < infos[j].MedicationID
	})
	return infos
}

// SlotInfo is one armed slot with its fire target.
type SlotInfo struct {
	Slot
	Target time.Time
}

// fire runs when a slot's timer expires. The medication is re-loaded so a
// removal or pause that happened while armed silently retires the slot.
// Re-arming recomputes the target from a fresh wall-clock read: if the
// process was suspended past the next occurrence, the new target is still a
// future instant.
func (s *Scheduler) fire(slot Slot) {
	m, err := db.GetMedication(s.database, slot.MedicationID)
	if err != nil || m == nil || !m.Active || !m.HasTime(slot.Time) {
		s.Disarm(slot)
		return
	}

	now := s.now()

	s.mu.Lock()
	granted := s.permission
	s.mu.Unlock()

	if granted && s.notifier != nil {
		s.notifier.Notify(notify.Reminder{
			MedicationID: m.ID,
			Name:         m.Name,
			Dosage:       m.Dosage,
			Time:         slot.Time,
			At:           now,
		})
	}

	target, err := NextOccurrence(now, slot.Time)
	if err != nil {
		s.Disarm(slot)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The slot may have been disarmed while firing; a Stop or ArmAll prune
	// must win over a racing re-arm.
	if _, ok := s.timers[slot]; !ok {
		return
	}
	s.armLocked(slot, now, target)
}
