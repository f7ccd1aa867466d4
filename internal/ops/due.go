package ops

import (
	"database/sql"
	"sort"

	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/medication"
)

// DueSlot is one (medication, time) pair in today's schedule.
type DueSlot struct {
	MedicationID string `json:"medication_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage,omitempty"`
	Status       string `json:"status"` // taken | unmarked
}

// DueGroup is the set of medications due at one time of day.
type DueGroup struct {
	Time  string    `json:"time"`
	Slots []DueSlot `json:"slots"`
}

// DueOutput contains the result of the Due operation.
type DueOutput struct {
	Day    string     `json:"day"`
	Groups []DueGroup `json:"groups"`
}

// Due maps the medication store to today's schedule: active medications
// grouped by dose time, groups ordered by time-of-day ascending. A
// medication with N configured times appears in exactly N groups. Status is
// derived per slot from the action log; the schedule itself holds no state.
func Due(database *sql.DB) (*DueOutput, error) {
	meds, err := db.ListMedications(database, true)
	if err != nil {
		return nil, err
	}

	day := today()
	groups := GroupByTime(meds)
	out := &DueOutput{Day: day, Groups: make([]DueGroup, 0, len(groups))}

	for _, g := range groups {
		slots := make([]DueSlot, 0, len(g.Medications))
		for _, m := range g.Medications {
			taken, err := db.TakenExists(database, m.ID, g.Time, day)
			if err != nil {
				return nil, err
			}
			status := StatusUnmarked
			if taken {
				status = StatusTaken
			}
			slots = append(slots, DueSlot{
				MedicationID: m.ID,
				Name:         m.Name,
				Dosage:       m.Dosage,
				Status:       status,
			})
		}
		out.Groups = append(out.Groups, DueGroup{Time: g.Time, Slots: slots})
	}

	return out, nil
}

// TimeGroup pairs a dose time with the medications configured for it.
type TimeGroup struct {
	Time        string
	Medications []*medication.Medication
}

// GroupByTime is the pure schedule index: it groups medications by dose
// time, ordered by zero-padded "HH:MM" ascending (plain string compare is
// correct for well-formed values). Medications inside a group keep the
// order they were given in.
func GroupByTime(meds []*medication.Medication) []TimeGroup {
	byTime := make(map[string][]*medication.Medication)
	for _, m := range meds {
		for _, tod := range m.Times {
			byTime[tod] = append(byTime[tod], m)
		}
	}

	times := make([]string, 0, len(byTime))
	for tod := range byTime {
		times = append(times, tod)
	}
	sort.Strings(times)

	groups := make([]TimeGroup, 0, len(times))
	for _, tod := range times {
		groups = append(groups, TimeGroup{Time: tod, Medications: byTime[tod]})
	}
	return groups
}
