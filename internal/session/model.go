package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alzie-companion/internal/mood"
)

var ErrSessionNotFound = errors.New("session not found")

// Interaction is one answered utterance.
type Interaction struct {
	Timestamp   time.Time `json:"timestamp"`
	Input       string    `json:"input"`
	Response    string    `json:"response"`
	Mood        mood.Mood `json:"mood"`
	StressLevel int       `json:"stress_level"`
}

// Log is the append-only record of one conversation.
type Log struct {
	ID                   uuid.UUID           `json:"session_id"`
	PatientID            string              `json:"patient_id"`
	StartTime            time.Time           `json:"start_time"`
	EndTime              *time.Time          `json:"end_time,omitempty"`
	Interactions         []Interaction       `json:"interactions"`
	StressLevels         []int               `json:"stress_levels"`
	Interventions        []mood.Intervention `json:"interventions"`
	OrientationReminders int                 `json:"orientation_reminders"`
}

func newLog(patientID string, start time.Time) Log {
	return Log{
		ID:            uuid.New(),
		PatientID:     patientID,
		StartTime:     start,
		Interactions:  []Interaction{},
		StressLevels:  []int{},
		Interventions: []mood.Intervention{},
	}
}

func (l *Log) record(at time.Time, input, reply string, state mood.State) {
	l.Interactions = append(l.Interactions, Interaction{
		Timestamp:   at,
		Input:       input,
		Response:    reply,
		Mood:        state.Mood,
		StressLevel: state.Stress,
	})
	l.StressLevels = append(l.StressLevels, state.Stress)
}

func (l Log) clone() Log {
	out := l
	out.Interactions = append([]Interaction{}, l.Interactions...)
	out.StressLevels = append([]int{}, l.StressLevels...)
	out.Interventions = append([]mood.Intervention{}, l.Interventions...)
	if l.EndTime != nil {
		end := *l.EndTime
		out.EndTime = &end
	}
	return out
}

// Duration runs from start to end, or to now while the session is open.
func (l Log) Duration() time.Duration {
	if l.EndTime == nil {
		return time.Since(l.StartTime)
	}
	return l.EndTime.Sub(l.StartTime)
}

func (l Log) AverageStress() float64 {
	if len(l.StressLevels) == 0 {
		return 0
	}
	sum := 0
	for _, s := range l.StressLevels {
		sum += s
	}
	return float64(sum) / float64(len(l.StressLevels))
}

func (l Log) Summary() string {
	if len(l.Interactions) == 0 {
		return "No interactions recorded"
	}
	return fmt.Sprintf("Session duration: %s. Interactions: %d. Avg stress: %.1f. Interventions: %d. Orientation reminders: %d",
		formatDuration(l.Duration()), len(l.Interactions), l.AverageStress(), len(l.Interventions), l.OrientationReminders)
}

// formatDuration renders d as H:MM:SS.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
