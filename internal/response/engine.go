// Package response turns a recognized utterance into the companion's reply.
//
// Replies are chosen by an ordered list of rules. Each rule pairs a
// predicate over the turn with a handler; the first rule whose predicate
// holds produces the reply. Handlers pick a phrasing at random from the
// catalog and fill it from the patient profile.
package response

import (
	"time"

	"alzie-companion/internal/health"
	"alzie-companion/internal/mood"
	"alzie-companion/internal/patient"
	"alzie-companion/internal/platform/keywords"
	"alzie-companion/internal/platform/random"
)

// Category names the rule that produced a reply.
type Category string

const (
	CategoryNoPatient     Category = "no_patient"
	CategoryClarification Category = "clarification"
	CategoryOrientation   Category = "orientation"
	CategoryIdentity      Category = "identity"
	CategoryLocation      Category = "location"
	CategoryAgentIdentity Category = "agent_identity"
	CategoryEmergency     Category = "emergency"
	CategoryIntervention  Category = "intervention"
	CategoryMusicControl  Category = "music_control"
	CategoryMemory        Category = "memory"
	CategoryComfort       Category = "comfort"
	CategoryActivity      Category = "activity"
	CategoryGreeting      Category = "greeting"
	CategoryTime          Category = "time"
	CategoryFood          Category = "food"
	CategoryFamily        Category = "family"
	CategoryReassurance   Category = "reassurance"
	CategoryHealth        Category = "health"
	CategoryHobby         Category = "hobby"
	CategoryPet           Category = "pet"
	CategoryWork          Category = "work"
	CategoryMedication    Category = "medication"
	CategoryDefault       Category = "default"
)

// Fixed replies.
const (
	NoPatientMessage   = "Please select a patient first"
	AgentDescription   = "I'm AlziE, your personal care assistant. I'm here to help and support you"
	VitalsNormal       = "Your vital signs appear normal"
	NoPetMessage       = "Would you like to talk about animals?"
	NoMusicMessage     = "I couldn't find any music to play"
	MusicStopped       = "The music has been stopped"
	VolumeIncreased    = "Volume increased"
	VolumeDecreased    = "Volume decreased"
	StressedPrefix     = "You seem very stressed. "
	MedicationReminder = "Remember to take your "
)

// ClarificationPhrases answer an utterance that was not recognized.
var ClarificationPhrases = []string{
	"I didn't hear that clearly",
	"Could you please repeat that?",
}

// namedDefaultChance is the probability that the default reply addresses
// the patient by name.
const namedDefaultChance = 0.3

// volumeStep is the change applied by one volume command.
const volumeStep = 0.2

// Player is the music playback the engine can control.
type Player interface {
	Play(track string) bool
	Stop()
	SetVolume(level float64)
	Volume() float64
	IsPlaying() bool
}

// Turn is everything the engine needs to answer one utterance.
type Turn struct {
	Utterance           string
	Profile             *patient.Profile
	Mood                mood.State
	Intervention        mood.Intervention
	Alerts              []health.Alert
	MedicationReminders []string
	OrientationDue      bool
	Now                 time.Time
}

// Reply is the engine's answer.
type Reply struct {
	Text         string            `json:"text"`
	Category     Category          `json:"category"`
	Intervention mood.Intervention `json:"intervention,omitempty"`
}

type Engine struct {
	catalog Catalog
	rand    random.Source
	player  Player
	rules   []rule
}

type Option func(*Engine)

func WithCatalog(c Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

func WithRandom(src random.Source) Option {
	return func(e *Engine) { e.rand = src }
}

func WithPlayer(p Player) Option {
	return func(e *Engine) { e.player = p }
}

func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		c, err := DefaultCatalog()
		if err != nil {
			return nil, err
		}
		e.catalog = c
	} else if err := e.catalog.Validate(); err != nil {
		return nil, err
	}
	if e.rand == nil {
		e.rand = random.NewTimeSeeded()
	}
	if e.player == nil {
		e.player = SilentPlayer{}
	}
	e.rules = e.buildRules()
	return e, nil
}

// Categories lists the rule categories in evaluation order.
func (e *Engine) Categories() []Category {
	out := make([]Category, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.category
	}
	return out
}

// Respond answers one turn. Without a profile every utterance gets the
// patient-selection message; an empty utterance gets a clarification.
func (e *Engine) Respond(t Turn) Reply {
	if t.Profile == nil {
		return Reply{Text: NoPatientMessage, Category: CategoryNoPatient}
	}

	text := keywords.Normalize(t.Utterance)
	if text.Empty() {
		return Reply{Text: random.Pick(e.rand, ClarificationPhrases), Category: CategoryClarification}
	}
	if t.Now.IsZero() {
		t.Now = time.Now()
	}

	req := &request{Turn: t, text: text}
	for _, r := range e.rules {
		if r.match(req) {
			reply := r.respond(req)
			reply.Category = r.category
			return reply
		}
	}
	// Unreachable: the default rule always matches.
	return Reply{Text: random.Pick(e.rand, e.catalog[PhrasesDefault]), Category: CategoryDefault}
}

func (e *Engine) phrase(set string, s slots) string {
	return fill(random.Pick(e.rand, e.catalog[set]), s)
}

// SilentPlayer is the Player of a companion without speakers. Play always
// fails, so music interventions fall back to breathing exercises.
type SilentPlayer struct{}

func (SilentPlayer) Play(string) bool  { return false }
func (SilentPlayer) Stop()             {}
func (SilentPlayer) SetVolume(float64) {}
func (SilentPlayer) Volume() float64   { return 0 }
func (SilentPlayer) IsPlaying() bool   { return false }
