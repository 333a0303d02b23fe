package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Repository interface {
	Sink
	GetByID(ctx context.Context, id uuid.UUID) (*Log, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Log, error) {
	query := `SELECT id, patient_id, start_time, end_time, interactions, stress_levels, interventions, orientation_reminders
		FROM session_logs WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	var l Log
	var end sql.NullTime
	var interactionsJSON, stressJSON, interventionsJSON []byte

	err := row.Scan(
		&l.ID,
		&l.PatientID,
		&l.StartTime,
		&end,
		&interactionsJSON,
		&stressJSON,
		&interventionsJSON,
		&l.OrientationReminders,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if end.Valid {
		l.EndTime = &end.Time
	}

	for _, col := range []struct {
		name string
		data []byte
		dst  any
	}{
		{"interactions", interactionsJSON, &l.Interactions},
		{"stress_levels", stressJSON, &l.StressLevels},
		{"interventions", interventionsJSON, &l.Interventions},
	} {
		if len(col.data) == 0 {
			continue
		}
		if err := json.Unmarshal(col.data, col.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", col.name, err)
		}
	}
	return &l, nil
}

// Append writes a finished log. Appending the same session twice keeps
// the latest copy.
func (r *postgresRepo) Append(ctx context.Context, l Log) error {
	interactionsJSON, err := json.Marshal(l.Interactions)
	if err != nil {
		return err
	}
	stressJSON, err := json.Marshal(l.StressLevels)
	if err != nil {
		return err
	}
	interventionsJSON, err := json.Marshal(l.Interventions)
	if err != nil {
		return err
	}

	var end sql.NullTime
	if l.EndTime != nil {
		end = sql.NullTime{Time: *l.EndTime, Valid: true}
	}

	query := `
		INSERT INTO session_logs (id, patient_id, start_time, end_time, interactions, stress_levels, interventions, orientation_reminders)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			end_time = $4,
			interactions = $5,
			stress_levels = $6,
			interventions = $7,
			orientation_reminders = $8
	`
	// lib/pq sends []byte as bytea; JSONB columns take text.
	_, err = r.db.ExecContext(ctx, query,
		l.ID, l.PatientID, l.StartTime, end, string(interactionsJSON), string(stressJSON), string(interventionsJSON), l.OrientationReminders)
	if err != nil {
		return fmt.Errorf("save session log: %w", err)
	}
	return nil
}
