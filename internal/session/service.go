package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"alzie-companion/internal/patient"
)

// ProfileSource looks up patients by id.
type ProfileSource interface {
	Get(id string) (*patient.Profile, error)
}

// STTClient transcribes recorded speech.
type STTClient interface {
	Transcribe(ctx context.Context, audioData []byte) (string, error)
}

// TTSClient synthesizes speech.
type TTSClient interface {
	Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error)
}

type Service interface {
	StartSession(ctx context.Context, patientID string) (*Controller, error)
	ProcessTurn(ctx context.Context, id uuid.UUID, text string) (Outcome, error)
	EndSession(ctx context.Context, id uuid.UUID) (Log, error)
	GetSession(ctx context.Context, id uuid.UUID) (Log, error)
	PatientSummary(patientID string) (string, error)
	TranscribeAudio(ctx context.Context, audio []byte) (string, error)
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

// ServiceConfig wires the service. Every field but Profiles is optional.
type ServiceConfig struct {
	Profiles   ProfileSource
	Repository Repository
	STT        STTClient
	TTS        TTSClient
	VoiceID    string
	// Options apply to every new session.
	Options []Option
}

type service struct {
	cfg ServiceConfig

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Controller
}

func NewService(cfg ServiceConfig) Service {
	return &service{
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*Controller),
	}
}

// StartSession opens a session for patientID. An empty id opens a session
// with no patient selected.
func (s *service) StartSession(ctx context.Context, patientID string) (*Controller, error) {
	var profile *patient.Profile
	if patientID != "" {
		p, err := s.cfg.Profiles.Get(patientID)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	c, err := NewController(profile, s.cfg.Options...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[c.log.ID] = c
	s.mu.Unlock()
	return c, nil
}

func (s *service) ProcessTurn(ctx context.Context, id uuid.UUID, text string) (Outcome, error) {
	c, err := s.active(id)
	if err != nil {
		return Outcome{}, err
	}
	return c.Turn(ctx, text), nil
}

func (s *service) EndSession(ctx context.Context, id uuid.UUID) (Log, error) {
	s.mu.Lock()
	c, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return Log{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return c.End(ctx), nil
}

// GetSession returns the log of an open session, or of a finished one when
// a repository is configured.
func (s *service) GetSession(ctx context.Context, id uuid.UUID) (Log, error) {
	if c, err := s.active(id); err == nil {
		return c.Snapshot(), nil
	}
	if s.cfg.Repository == nil {
		return Log{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	l, err := s.cfg.Repository.GetByID(ctx, id)
	if err != nil {
		return Log{}, err
	}
	return *l, nil
}

func (s *service) PatientSummary(patientID string) (string, error) {
	p, err := s.cfg.Profiles.Get(patientID)
	if err != nil {
		return "", err
	}
	return p.Summary(), nil
}

var errNoSpeechService = errors.New("speech service not configured")

func (s *service) TranscribeAudio(ctx context.Context, audio []byte) (string, error) {
	if s.cfg.STT == nil {
		return "", errNoSpeechService
	}
	return s.cfg.STT.Transcribe(ctx, audio)
}

func (s *service) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	if s.cfg.TTS == nil {
		return nil, errNoSpeechService
	}
	return s.cfg.TTS.Synthesize(ctx, text, s.cfg.VoiceID)
}

func (s *service) active(id uuid.UUID) (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return c, nil
}
