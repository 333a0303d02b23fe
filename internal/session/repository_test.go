package session

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alzie-companion/internal/mood"
)

// Runs against a migrated database named by ALZIE_TEST_DATABASE_URL.
func TestPostgresRepo_AppendAndGet(t *testing.T) {
	dsn := os.Getenv("ALZIE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ALZIE_TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	repo := NewRepository(db)
	ctx := context.Background()

	l := newLog("SM1001", noon)
	l.record(noon, "help me", "I can contact Naveen", mood.State{Mood: mood.Urgent, Stress: 3})
	l.Interventions = append(l.Interventions, mood.InterventionBreathing)
	end := noon.Add(time.Minute)
	l.EndTime = &end

	require.NoError(t, repo.Append(ctx, l))
	require.NoError(t, repo.Append(ctx, l))

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.PatientID, got.PatientID)
	assert.True(t, l.StartTime.Equal(got.StartTime))
	assert.Equal(t, l.StressLevels, got.StressLevels)
	assert.Equal(t, l.Interventions, got.Interventions)
	require.Len(t, got.Interactions, 1)
	assert.Equal(t, "help me", got.Interactions[0].Input)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
