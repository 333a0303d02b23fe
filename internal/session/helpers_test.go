package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"alzie-companion/internal/mood"
	"alzie-companion/internal/patient"
)

var noon = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fixedSource always picks the first phrasing and never personalizes the
// default reply.
type fixedSource struct{}

func (fixedSource) IntN(int) int     { return 0 }
func (fixedSource) Float64() float64 { return 0.9 }

type fakePlayer struct {
	mu      sync.Mutex
	playing bool
	plays   int
}

func (p *fakePlayer) Play(string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	p.playing = true
	return true
}
func (p *fakePlayer) Stop()             { p.playing = false }
func (p *fakePlayer) SetVolume(float64) {}
func (p *fakePlayer) Volume() float64   { return 0.5 }
func (p *fakePlayer) IsPlaying() bool   { return p.playing }

type memorySink struct {
	mu   sync.Mutex
	logs []Log
}

func (s *memorySink) Append(_ context.Context, l Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, l)
	return nil
}

type fakeNotifier struct {
	mu          sync.Mutex
	emergencies []string
	reports     []Log
}

func (n *fakeNotifier) NotifyEmergency(_ context.Context, _ *patient.Profile, utterance string, _ mood.State) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emergencies = append(n.emergencies, utterance)
	return nil
}

func (n *fakeNotifier) SendSessionReport(_ context.Context, _ *patient.Profile, l Log) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, l)
	return nil
}

func sampleProfile(t *testing.T) *patient.Profile {
	t.Helper()
	p, err := patient.NewProfile(map[string]string{
		"patient_id":          "SM1001",
		"first_name":          "Saksham",
		"last_name":           "Malhotra",
		"age":                 "28",
		"emergency_contact1":  "Naveen Malhotra",
		"emergency_relation1": "Father",
		"emergency_phone1":    "+1 (555) 987-6543",
		"address":             "123 Wellness Lane",
		"city":                "Health City",
		"state":               "CA",
	})
	require.NoError(t, err)
	return p
}

type profiles map[string]*patient.Profile

func (p profiles) Get(id string) (*patient.Profile, error) {
	if prof, ok := p[id]; ok {
		return prof, nil
	}
	return nil, patient.ErrNotFound
}
