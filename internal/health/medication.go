package health

import (
	"strings"
	"time"

	"alzie-companion/internal/platform/random"
)

const (
	minReminderInterval = time.Hour
	maxReminderInterval = 2 * time.Hour
)

// MedicationScheduler keeps a next-due time per medication. Intervals are
// drawn between one and two hours; they approximate adherence prompts and
// do not follow a prescribed dosing schedule.
type MedicationScheduler struct {
	next map[string]time.Time
	rand random.Source
	now  func() time.Time
}

func NewMedicationScheduler(src random.Source, now func() time.Time) *MedicationScheduler {
	if now == nil {
		now = time.Now
	}
	return &MedicationScheduler{
		next: make(map[string]time.Time),
		rand: src,
		now:  now,
	}
}

// Due schedules medications seen for the first time and returns, in input
// order, those whose due time has passed. Returned medications are
// rescheduled.
func (m *MedicationScheduler) Due(medications []string) []string {
	now := m.now()
	for _, med := range medications {
		med = strings.TrimSpace(med)
		if med == "" {
			continue
		}
		if _, ok := m.next[med]; !ok {
			m.next[med] = now.Add(m.interval())
		}
	}

	var due []string
	for _, med := range medications {
		med = strings.TrimSpace(med)
		next, ok := m.next[med]
		if !ok || !now.After(next) {
			continue
		}
		due = append(due, med)
		m.next[med] = now.Add(m.interval())
	}
	return due
}

// NextDue reports when med is next due.
func (m *MedicationScheduler) NextDue(med string) (time.Time, bool) {
	t, ok := m.next[med]
	return t, ok
}

func (m *MedicationScheduler) interval() time.Duration {
	span := int((maxReminderInterval - minReminderInterval) / time.Second)
	return minReminderInterval + time.Duration(m.rand.IntN(span+1))*time.Second
}
