// Package mood classifies utterances into a mood and keeps the session's
// bounded stress level.
package mood

import (
	"time"

	"alzie-companion/internal/platform/keywords"
)

type Mood string

const (
	Neutral  Mood = "neutral"
	Positive Mood = "positive"
	Negative Mood = "negative"
	Urgent   Mood = "urgent"
)

const (
	MinStress = 0
	MaxStress = 10

	urgentDelta   = 3
	negativeDelta = 2
	positiveDelta = 1
	decayDelta    = 1
)

var (
	UrgentWords   = []string{"pain", "help", "emergency", "danger", "hurt", "fall", "bleeding"}
	PositiveWords = []string{"happy", "good", "great", "wonderful", "joy", "excited", "fantastic", "perfect", "amazing", "calm"}
	NegativeWords = []string{"sad", "angry", "upset", "scared", "afraid", "depressed", "anxious", "worried", "frustrated", "lost", "confused"}
)

// State is the mood of the latest utterance and the accumulated stress.
type State struct {
	Mood   Mood `json:"mood"`
	Stress int  `json:"stress_level"`
}

// Tracker owns the MoodState of one session. It is not safe for concurrent
// use; a session processes one utterance at a time.
type Tracker struct {
	state         State
	decayInterval time.Duration
	lastChange    time.Time
	now           func() time.Time
}

type Option func(*Tracker)

// WithDecayInterval enables DecayIfDue: one point of stress is released per
// full interval without a stress change.
func WithDecayInterval(d time.Duration) Option {
	return func(t *Tracker) { t.decayInterval = d }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithStress starts the tracker at the given stress level.
func WithStress(level int) Option {
	return func(t *Tracker) { t.state.Stress = clamp(level) }
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		state: State{Mood: Neutral},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.lastChange = t.now()
	return t
}

// State returns the current mood state.
func (t *Tracker) State() State {
	return t.state
}

// Analyze classifies utterance and updates the state. Urgent words take
// precedence over positive ones, which take precedence over negative ones.
// An empty utterance leaves the state untouched.
func (t *Tracker) Analyze(utterance string) State {
	text := keywords.Normalize(utterance)
	if text.Empty() {
		return t.state
	}

	switch {
	case text.ContainsAny(UrgentWords):
		t.state.Mood = Urgent
		t.adjust(urgentDelta)
	case text.ContainsAny(PositiveWords):
		t.state.Mood = Positive
		t.adjust(-positiveDelta)
	case text.ContainsAny(NegativeWords):
		t.state.Mood = Negative
		t.adjust(negativeDelta)
	default:
		t.state.Mood = Neutral
	}
	return t.state
}

// Decay releases one point of stress.
func (t *Tracker) Decay() State {
	t.adjust(-decayDelta)
	return t.state
}

// DecayIfDue applies one Decay per elapsed decay interval since the last
// stress change. It is a no-op when no interval is configured.
func (t *Tracker) DecayIfDue() State {
	if t.decayInterval <= 0 {
		return t.state
	}
	elapsed := t.now().Sub(t.lastChange)
	steps := int(elapsed / t.decayInterval)
	if steps <= 0 {
		return t.state
	}
	t.state.Stress = clamp(t.state.Stress - steps*decayDelta)
	t.lastChange = t.lastChange.Add(time.Duration(steps) * t.decayInterval)
	return t.state
}

func (t *Tracker) adjust(delta int) {
	t.state.Stress = clamp(t.state.Stress + delta)
	t.lastChange = t.now()
}

func clamp(level int) int {
	if level < MinStress {
		return MinStress
	}
	if level > MaxStress {
		return MaxStress
	}
	return level
}
