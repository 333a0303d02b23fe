// Package orientation decides when the companion should re-orient the
// patient to who and where they are, and gathers what to tell them.
package orientation

import (
	"fmt"
	"strings"
	"time"

	"alzie-companion/internal/patient"
)

// DefaultInterval is the minimum time between two orientation reminders.
const DefaultInterval = time.Hour

// Scheduler is the per-session orientation timer. A new scheduler has never
// reminded, so the first check of a session is due.
type Scheduler struct {
	interval time.Duration
	last     time.Time
	count    int
	now      func() time.Time
}

func NewScheduler(interval time.Duration, now func() time.Time) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Scheduler{interval: interval, now: now}
}

// ShouldRemind reports whether more than the interval passed since the last
// reminder.
func (s *Scheduler) ShouldRemind() bool {
	if s.last.IsZero() {
		return true
	}
	return s.now().Sub(s.last) > s.interval
}

// MarkReminded restarts the timer.
func (s *Scheduler) MarkReminded() {
	s.last = s.now()
	s.count++
}

// LastReminded returns the time of the last reminder, zero if none.
func (s *Scheduler) LastReminded() time.Time {
	return s.last
}

// Reminders returns how many reminders were given.
func (s *Scheduler) Reminders() int {
	return s.count
}

// Facts is what an orientation reminder tells the patient.
type Facts struct {
	Time      string
	Person    string
	Location  string
	Emergency string
}

// String joins the facts into one spoken paragraph.
func (f Facts) String() string {
	parts := make([]string, 0, 4)
	if f.Time != "" {
		parts = append(parts, "It's "+f.Time)
	}
	for _, s := range []string{f.Person, f.Location, f.Emergency} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ". ")
}

// FactsFor builds the orientation facts for p at now.
func FactsFor(p *patient.Profile, now time.Time) Facts {
	if p == nil {
		return Facts{}
	}

	person := fmt.Sprintf("You are %s, %d years old", p.FullName(), p.Age)
	if p.Occupation != "" {
		person = fmt.Sprintf("You are %s, a %d year old %s", p.FullName(), p.Age, p.Occupation)
	}

	return Facts{
		Time:      now.Format("03:04 PM on Monday, January 02"),
		Person:    person,
		Location:  joinNonBlank(", ", p.Address, p.City, p.State),
		Emergency: fmt.Sprintf("Your emergency contact is %s (%s) at %s", p.Emergency.Name, p.Emergency.Relation, p.Emergency.Phone),
	}
}

func joinNonBlank(sep string, values ...string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}
