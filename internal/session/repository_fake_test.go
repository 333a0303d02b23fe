package session

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alzie-companion/internal/mood"
)

// memoryDB is a database/sql driver that understands the two statements the
// Postgres repository issues. Rows are keyed by session id and stored the
// way lib/pq hands JSONB back: as bytes.
type memoryDB struct {
	mu      sync.Mutex
	rows    map[string][]driver.Value
	inserts [][]driver.Value
}

func newMemoryDB() *memoryDB {
	return &memoryDB{rows: make(map[string][]driver.Value)}
}

func (m *memoryDB) Connect(context.Context) (driver.Conn, error) { return &memoryConn{db: m}, nil }
func (m *memoryDB) Driver() driver.Driver                        { return memoryDriver{db: m} }

type memoryDriver struct{ db *memoryDB }

func (d memoryDriver) Open(string) (driver.Conn, error) { return &memoryConn{db: d.db}, nil }

type memoryConn struct{ db *memoryDB }

func (c *memoryConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare not supported") }
func (c *memoryConn) Close() error                        { return nil }
func (c *memoryConn) Begin() (driver.Tx, error)           { return nil, errors.New("transactions not supported") }

func (c *memoryConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if !strings.Contains(query, "INSERT INTO session_logs") || !strings.Contains(query, "ON CONFLICT (id) DO UPDATE") {
		return nil, errors.New("unexpected statement: " + query)
	}
	values := make([]driver.Value, len(args))
	for i, a := range args {
		values[i] = a.Value
	}

	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.inserts = append(c.db.inserts, values)

	row := append([]driver.Value{}, values...)
	for i := 4; i <= 6; i++ {
		if s, ok := row[i].(string); ok {
			row[i] = []byte(s)
		}
	}
	c.db.rows[values[0].(string)] = row
	return driver.RowsAffected(1), nil
}

func (c *memoryConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if !strings.Contains(query, "FROM session_logs WHERE id = $1") {
		return nil, errors.New("unexpected query: " + query)
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	rows := &memoryRows{cols: []string{
		"id", "patient_id", "start_time", "end_time", "interactions", "stress_levels", "interventions", "orientation_reminders",
	}}
	if row, ok := c.db.rows[args[0].Value.(string)]; ok {
		rows.data = [][]driver.Value{row}
	}
	return rows, nil
}

type memoryRows struct {
	cols []string
	data [][]driver.Value
}

func (r *memoryRows) Columns() []string { return r.cols }
func (r *memoryRows) Close() error      { return nil }

func (r *memoryRows) Next(dest []driver.Value) error {
	if len(r.data) == 0 {
		return io.EOF
	}
	copy(dest, r.data[0])
	r.data = r.data[1:]
	return nil
}

func TestPostgresRepo_UpsertRoundTrip(t *testing.T) {
	mem := newMemoryDB()
	db := sql.OpenDB(mem)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	l := newLog("SM1001", noon)
	l.record(noon, "help me", "I can contact Naveen", mood.State{Mood: mood.Urgent, Stress: 3})
	l.Interventions = append(l.Interventions, mood.InterventionEmergencySuggested)
	require.NoError(t, repo.Append(ctx, l))

	end := noon.Add(time.Minute)
	l.EndTime = &end
	l.OrientationReminders = 1
	require.NoError(t, repo.Append(ctx, l))

	require.Len(t, mem.inserts, 2)
	for i := 4; i <= 6; i++ {
		assert.IsType(t, "", mem.inserts[1][i], "JSONB column %d must be sent as text", i)
	}
	assert.Nil(t, mem.inserts[0][3], "open session has no end time")

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, "SM1001", got.PatientID)
	assert.True(t, noon.Equal(got.StartTime))
	require.NotNil(t, got.EndTime)
	assert.True(t, end.Equal(*got.EndTime))
	assert.Equal(t, []int{3}, got.StressLevels)
	assert.Equal(t, []mood.Intervention{mood.InterventionEmergencySuggested}, got.Interventions)
	assert.Equal(t, 1, got.OrientationReminders)
	require.Len(t, got.Interactions, 1)
	assert.Equal(t, "help me", got.Interactions[0].Input)
	assert.Equal(t, mood.Urgent, got.Interactions[0].Mood)
}

func TestPostgresRepo_GetByIDNotFound(t *testing.T) {
	db := sql.OpenDB(newMemoryDB())
	defer db.Close()

	_, err := NewRepository(db).GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
