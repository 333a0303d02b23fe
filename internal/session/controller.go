// Package session runs conversations: one Controller per patient session
// turns utterances into replies, tracks mood and keeps the session log.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"alzie-companion/internal/health"
	"alzie-companion/internal/mood"
	"alzie-companion/internal/orientation"
	"alzie-companion/internal/patient"
	"alzie-companion/internal/platform/keywords"
	"alzie-companion/internal/platform/random"
	"alzie-companion/internal/response"
)

// Lines spoken outside the response engine.
const (
	WelcomeMessage       = "Welcome to AlziE. I'm ready to assist you."
	FarewellMessage      = "Goodbye for now. Remember, I'm always here when you need me"
	InterruptMessage     = "Goodbye. Have a peaceful day"
	FallbackReply        = "I'm sorry, I didn't quite catch that. Could you please say it again?"
	NegativeMoodFollowUp = "I sense you might be feeling down. Would you like me to play some calming music?"
)

// ExitWords end a conversation.
var ExitWords = []string{"goodbye", "quit", "exit", "bye"}

const notifyTimeout = 15 * time.Second

// Voice is the patient side of a conversation.
type Voice interface {
	Listen(ctx context.Context) (string, error)
	Speak(ctx context.Context, text string) error
}

// Notifier reaches the caregiver.
type Notifier interface {
	NotifyEmergency(ctx context.Context, p *patient.Profile, utterance string, state mood.State) error
	SendSessionReport(ctx context.Context, p *patient.Profile, log Log) error
}

// Observer receives per-session telemetry.
type Observer interface {
	SessionStarted()
	SessionEnded()
	ObserveTurn(category, mood string, stress int, intervention string)
	ObserveNotification(kind string, err error)
}

// Outcome is the result of one turn.
type Outcome struct {
	Reply    response.Reply
	FollowUp string
	Mood     mood.State
	Alerts   []health.Alert
}

type Controller struct {
	profile     *patient.Profile
	engine      *response.Engine
	tracker     *mood.Tracker
	orientation *orientation.Scheduler
	meds        *health.MedicationScheduler
	player      response.Player
	rand        random.Source
	sinks       []Sink
	notifier    Notifier
	observer    Observer
	logger      zerolog.Logger
	now         func() time.Time

	mu       sync.Mutex
	log      Log
	ended    bool
	inflight sync.WaitGroup
}

type options struct {
	now                 func() time.Time
	rand                random.Source
	player              response.Player
	catalog             response.Catalog
	sinks               []Sink
	notifier            Notifier
	observer            Observer
	logger              zerolog.Logger
	decayInterval       time.Duration
	orientationInterval time.Duration
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithRandom(src random.Source) Option {
	return func(o *options) { o.rand = src }
}

func WithPlayer(p response.Player) Option {
	return func(o *options) { o.player = p }
}

func WithCatalog(c response.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithSinks adds destinations for the finished session log.
func WithSinks(sinks ...Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sinks...) }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDecayInterval releases one point of stress per quiet interval. Zero
// disables decay.
func WithDecayInterval(d time.Duration) Option {
	return func(o *options) { o.decayInterval = d }
}

func WithOrientationInterval(d time.Duration) Option {
	return func(o *options) { o.orientationInterval = d }
}

// NewController starts a session for profile. A nil profile is allowed;
// every turn then asks for a patient to be selected.
func NewController(profile *patient.Profile, opts ...Option) (*Controller, error) {
	o := options{
		now:                 time.Now,
		logger:              zerolog.Nop(),
		orientationInterval: orientation.DefaultInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = random.NewTimeSeeded()
	}
	if o.player == nil {
		o.player = response.SilentPlayer{}
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}

	engine, err := response.NewEngine(
		response.WithCatalog(o.catalog),
		response.WithRandom(o.rand),
		response.WithPlayer(o.player),
	)
	if err != nil {
		return nil, fmt.Errorf("build response engine: %w", err)
	}

	patientID := ""
	if profile != nil {
		patientID = profile.ID
	}

	c := &Controller{
		profile: profile,
		engine:  engine,
		tracker: mood.NewTracker(
			mood.WithClock(o.now),
			mood.WithDecayInterval(o.decayInterval),
		),
		orientation: orientation.NewScheduler(o.orientationInterval, o.now),
		meds:        health.NewMedicationScheduler(o.rand, o.now),
		player:      o.player,
		rand:        o.rand,
		sinks:       o.sinks,
		notifier:    o.notifier,
		observer:    o.observer,
		log:         newLog(patientID, o.now()),
		now:         o.now,
	}
	c.logger = o.logger.With().Str("session_id", c.log.ID.String()).Str("patient_id", patientID).Logger()
	c.observer.SessionStarted()
	c.logger.Info().Msg("session started")
	return c, nil
}

func (c *Controller) ID() string {
	return c.log.ID.String()
}

func (c *Controller) Profile() *patient.Profile {
	return c.profile
}

// Greeting opens a conversation.
func (c *Controller) Greeting() string {
	if c.profile == nil {
		return WelcomeMessage
	}
	return fmt.Sprintf("%s Hello, I see we're with %s today", WelcomeMessage, c.profile.FirstName)
}

// Turn answers one utterance. It never fails: a panic while answering is
// logged and replaced by a request to repeat.
func (c *Controller) Turn(ctx context.Context, utterance string) (out Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Str("utterance", utterance).Msg("turn failed")
			out = Outcome{
				Reply: response.Reply{Text: FallbackReply, Category: response.CategoryClarification},
				Mood:  c.tracker.State(),
			}
		}
	}()

	now := c.now()
	utterance = strings.TrimSpace(utterance)
	turn := response.Turn{Utterance: utterance, Profile: c.profile, Now: now}

	// Without a patient or without words there is nothing to analyze or log.
	if c.profile == nil || utterance == "" {
		turn.Mood = c.tracker.State()
		return Outcome{Reply: c.engine.Respond(turn), Mood: turn.Mood}
	}

	c.tracker.DecayIfDue()
	state := c.tracker.Analyze(utterance)
	h := c.profile.Health()
	turn.Alerts = health.CheckVitals(h.Vitals)
	turn.MedicationReminders = c.meds.Due(h.Medications)
	turn.OrientationDue = c.orientation.ShouldRemind()
	turn.Intervention = mood.SuggestIntervention(state.Stress, c.rand)
	turn.Mood = state

	reply := c.engine.Respond(turn)
	out = Outcome{Reply: reply, Mood: state, Alerts: turn.Alerts}

	if reply.Category == response.CategoryOrientation {
		c.orientation.MarkReminded()
		c.log.OrientationReminders++
	}
	switch {
	case reply.Intervention != "":
		c.log.Interventions = append(c.log.Interventions, reply.Intervention)
	case reply.Category == response.CategoryEmergency:
		c.log.Interventions = append(c.log.Interventions, mood.InterventionEmergencySuggested)
	}
	if state.Mood == mood.Negative && !c.player.IsPlaying() {
		out.FollowUp = NegativeMoodFollowUp
		c.player.Play("")
	}
	if !c.ended {
		c.log.record(now, utterance, reply.Text, state)
	}
	if state.Mood == mood.Urgent ||
		reply.Category == response.CategoryEmergency ||
		reply.Intervention == mood.InterventionEmergencyContact {
		c.notifyEmergency(ctx, utterance, state)
	}

	c.observer.ObserveTurn(string(reply.Category), string(state.Mood), state.Stress, string(reply.Intervention))
	c.logger.Debug().
		Str("category", string(reply.Category)).
		Str("mood", string(state.Mood)).
		Int("stress", state.Stress).
		Str("intervention", string(reply.Intervention)).
		Msg("turn answered")
	return out
}

// Run holds a spoken conversation until the patient says goodbye, the
// voice runs out of input or ctx is cancelled, then ends the session.
func (c *Controller) Run(ctx context.Context, v Voice) (Log, error) {
	c.say(ctx, v, c.Greeting())

	for {
		utterance, err := v.Listen(ctx)
		switch {
		case ctx.Err() != nil:
			quiet := context.WithoutCancel(ctx)
			c.say(quiet, v, InterruptMessage)
			return c.End(quiet), nil
		case errors.Is(err, io.EOF):
			c.say(ctx, v, FarewellMessage)
			return c.End(ctx), nil
		case err != nil:
			c.say(ctx, v, FallbackReply)
			return c.End(ctx), fmt.Errorf("listen: %w", err)
		}

		if strings.TrimSpace(utterance) == "" {
			continue
		}
		if IsExit(utterance) {
			c.say(ctx, v, FarewellMessage)
			return c.End(ctx), nil
		}

		out := c.Turn(ctx, utterance)
		c.say(ctx, v, out.Reply.Text)
		if out.FollowUp != "" {
			c.say(ctx, v, out.FollowUp)
		}
	}
}

// End closes the session: it stamps the end time, hands the log to every
// sink and sends the caregiver report. Later calls return the same log.
func (c *Controller) End(ctx context.Context) Log {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended {
		return c.log.clone()
	}
	c.ended = true
	end := c.now()
	c.log.EndTime = &end
	c.inflight.Wait()

	log := c.log.clone()
	for _, sink := range c.sinks {
		if err := sink.Append(ctx, log); err != nil {
			c.logger.Error().Err(err).Msg("failed to store session log")
		}
	}
	if c.notifier != nil && c.profile != nil && len(log.Interactions) > 0 {
		err := c.notifier.SendSessionReport(ctx, c.profile, log)
		c.observer.ObserveNotification("session_report", err)
		if err != nil {
			c.logger.Error().Err(err).Msg("failed to send session report")
		}
	}

	c.observer.SessionEnded()
	c.logger.Info().Str("summary", log.Summary()).Msg("session ended")
	return log
}

// Snapshot returns a copy of the log so far.
func (c *Controller) Snapshot() Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.clone()
}

// IsExit reports whether utterance asks to end the conversation.
func IsExit(utterance string) bool {
	return keywords.Normalize(utterance).ContainsAny(ExitWords)
}

func (c *Controller) say(ctx context.Context, v Voice, text string) {
	if err := v.Speak(ctx, text); err != nil {
		c.logger.Warn().Err(err).Msg("failed to speak reply")
	}
}

// notifyEmergency alerts the caregiver in the background; End waits for
// pending alerts before closing the session.
func (c *Controller) notifyEmergency(ctx context.Context, utterance string, state mood.State) {
	if c.notifier == nil || c.profile == nil {
		return
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		err := c.notifier.NotifyEmergency(ctx, c.profile, utterance, state)
		c.observer.ObserveNotification("emergency", err)
		if err != nil {
			c.logger.Error().Err(err).Msg("failed to notify caregiver")
			return
		}
		c.logger.Info().Msg("caregiver notified")
	}()
}

type nopObserver struct{}

func (nopObserver) SessionStarted()                         {}
func (nopObserver) SessionEnded()                           {}
func (nopObserver) ObserveTurn(string, string, int, string) {}
func (nopObserver) ObserveNotification(string, error)       {}
