package report

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alzie-companion/internal/mood"
	"alzie-companion/internal/patient"
	"alzie-companion/internal/session"
)

type fakeTelegram struct {
	messages []string
	docs     map[string][]byte
	caption  string
	err      error
}

func (f *fakeTelegram) SendMessage(_ context.Context, _ int64, text string) error {
	f.messages = append(f.messages, text)
	return f.err
}

func (f *fakeTelegram) SendDocument(_ context.Context, _ int64, filename string, data []byte, caption string) error {
	if f.docs == nil {
		f.docs = map[string][]byte{}
	}
	f.docs[filename] = data
	f.caption = caption
	return f.err
}

var start = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func profile(t *testing.T) *patient.Profile {
	t.Helper()
	p, err := patient.NewProfile(map[string]string{
		"patient_id":          "SM1001",
		"first_name":          "Saksham",
		"last_name":           "Malhotra",
		"age":                 "28",
		"emergency_contact1":  "Naveen Malhotra",
		"emergency_relation1": "Father",
		"emergency_phone1":    "+1 (555) 987-6543",
	})
	require.NoError(t, err)
	return p
}

func sessionLog() session.Log {
	end := start.Add(10 * time.Minute)
	return session.Log{
		ID:        uuid.New(),
		PatientID: "SM1001",
		StartTime: start,
		EndTime:   &end,
		Interactions: []session.Interaction{
			{Timestamp: start, Input: "hello", Response: "Let me remind you: ...", Mood: mood.Neutral},
			{Timestamp: start.Add(time.Minute), Input: "help me", Response: "I can contact Naveen Malhotra (Father)", Mood: mood.Urgent, StressLevel: 3},
		},
		StressLevels:         []int{0, 3},
		Interventions:        []mood.Intervention{mood.InterventionBreathing},
		OrientationReminders: 1,
	}
}

func availableFont(t *testing.T) string {
	t.Helper()
	for _, p := range DefaultFontPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skip("DejaVu Sans not installed")
	return ""
}

func TestEmergencyText(t *testing.T) {
	text := EmergencyText(profile(t), "help me", mood.State{Mood: mood.Urgent, Stress: 6}, start)
	assert.Equal(t, "AlziE alert for Saksham Malhotra (SM1001)\n"+
		"Time: 2024-01-15 09:30\n"+
		"Patient said: \"help me\"\n"+
		"Mood: urgent, stress 6/10\n"+
		"Emergency contact: Naveen Malhotra (Father) at +1 (555) 987-6543", text)
}

func TestNotifyEmergency(t *testing.T) {
	tg := &fakeTelegram{}
	svc := NewService(tg, 99, nil, zerolog.Nop())

	require.NoError(t, svc.NotifyEmergency(context.Background(), profile(t), "I fell", mood.State{Mood: mood.Urgent, Stress: 3}))
	require.Len(t, tg.messages, 1)
	assert.Contains(t, tg.messages[0], `Patient said: "I fell"`)
}

func TestNoCaregiverConfigured(t *testing.T) {
	svc := NewService(&fakeTelegram{}, 0, nil, zerolog.Nop())
	ctx := context.Background()

	assert.ErrorIs(t, svc.NotifyEmergency(ctx, profile(t), "help", mood.State{}), ErrNoCaregiver)
	assert.ErrorIs(t, svc.SendSessionReport(ctx, profile(t), sessionLog()), ErrNoCaregiver)
}

func TestBuildPDF_MissingFont(t *testing.T) {
	svc := NewService(&fakeTelegram{}, 1, []string{"/nonexistent/font.ttf"}, zerolog.Nop())
	_, err := svc.BuildPDF(profile(t), sessionLog())
	assert.ErrorIs(t, err, ErrNoFont)
}

func TestSendSessionReport(t *testing.T) {
	font := availableFont(t)
	tg := &fakeTelegram{}
	svc := NewService(tg, 1, []string{font}, zerolog.Nop())
	l := sessionLog()

	require.NoError(t, svc.SendSessionReport(context.Background(), profile(t), l))
	data, ok := tg.docs["session_SM1001_20240115_0930.pdf"]
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(data[:4]))
	assert.Equal(t, l.Summary(), tg.caption)
}

func TestSendSessionReport_TelegramFailure(t *testing.T) {
	font := availableFont(t)
	svc := NewService(&fakeTelegram{err: errors.New("bot blocked")}, 1, []string{font}, zerolog.Nop())
	assert.Error(t, svc.SendSessionReport(context.Background(), profile(t), sessionLog()))
}

var _ session.Notifier = (*Service)(nil)
