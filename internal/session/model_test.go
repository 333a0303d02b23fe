package session

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alzie-companion/internal/mood"
)

func TestSummary_NoInteractions(t *testing.T) {
	l := newLog("SM1001", noon)
	assert.Equal(t, "No interactions recorded", l.Summary())
}

func TestSummary(t *testing.T) {
	l := newLog("SM1001", noon)
	l.record(noon, "hello", "Hi", mood.State{Mood: mood.Neutral, Stress: 0})
	l.record(noon, "pain", "Calling", mood.State{Mood: mood.Urgent, Stress: 3})
	l.record(noon, "sad", "Breathe", mood.State{Mood: mood.Negative, Stress: 5})
	l.Interventions = append(l.Interventions, mood.InterventionBreathing)
	l.OrientationReminders = 1
	end := noon.Add(time.Hour + 2*time.Minute + 3*time.Second)
	l.EndTime = &end

	assert.InDelta(t, 2.667, l.AverageStress(), 0.001)
	assert.Equal(t, "Session duration: 1:02:03. Interactions: 3. Avg stress: 2.7. Interventions: 1. Orientation reminders: 1", l.Summary())
}

func TestFileSink_AppendsOneLinePerSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session_log.json")
	sink := NewFileSink(path)
	ctx := context.Background()

	first := newLog("SM1001", noon)
	first.record(noon, "hello", "Hi", mood.State{Mood: mood.Neutral})
	second := newLog("SM1001", noon.Add(time.Hour))

	require.NoError(t, sink.Append(ctx, first))
	require.NoError(t, sink.Append(ctx, second))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		got = append(got, entry)
	}
	require.Len(t, got, 2)
	assert.Equal(t, first.ID.String(), got[0]["session_id"])
	assert.Len(t, got[0]["interactions"], 1)
	assert.Equal(t, []any{}, got[1]["interventions"])
	for _, key := range []string{"start_time", "interactions", "stress_levels", "interventions", "orientation_reminders"} {
		assert.Contains(t, got[0], key)
	}
}

func TestFileSink_UnwritablePath(t *testing.T) {
	sink := NewFileSink(filepath.Join(t.TempDir(), "missing", "log.json"))
	assert.Error(t, sink.Append(context.Background(), newLog("x", noon)))
}
