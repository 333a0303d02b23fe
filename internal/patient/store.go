package patient

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Store holds the validated profiles of one profile source.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	logger   zerolog.Logger
}

func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		profiles: make(map[string]*Profile),
		logger:   logger.With().Str("component", "patient_store").Logger(),
	}
}

// Open loads the profile file at path, writing the sample data first when
// the file is missing or empty. A file whose rows are all rejected is left
// untouched and reported as ErrInvalidProfile.
func (s *Store) Open(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Warn().Str("path", path).Msg("patient data file not found, creating sample data")
		if err := WriteSample(path); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("stat patient data: %w", err)
	case info.Size() == 0:
		s.logger.Warn().Str("path", path).Msg("patient data file is empty, recreating sample data")
		if err := WriteSample(path); err != nil {
			return err
		}
	}

	n, err := s.LoadFile(path)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: no valid patient rows in %s", ErrInvalidProfile, path)
	}
	return nil
}

// LoadFile replaces the store contents with the profiles in path.
func (s *Store) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open patient data: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}

// Load replaces the store contents with the valid profiles read from r and
// returns how many were loaded. Invalid rows are logged and skipped.
func (s *Store) Load(r io.Reader) (int, error) {
	rows, err := readRows(r)
	if err != nil {
		return 0, err
	}

	profiles := make(map[string]*Profile, len(rows))
	for i, row := range rows {
		p, err := NewProfile(row)
		if err != nil {
			s.logger.Warn().Err(err).Int("row", i+2).Msg("rejecting patient record")
			continue
		}
		profiles[p.ID] = p
	}

	s.mu.Lock()
	s.profiles = profiles
	s.mu.Unlock()

	s.logger.Info().Int("patients", len(profiles)).Msg("patient data loaded")
	return len(profiles), nil
}

// RefreshHealth re-reads the source and swaps vitals and medications of the
// already loaded profiles. Identity fields and new rows are ignored so that
// a running session keeps a stable profile.
func (s *Store) RefreshHealth(r io.Reader) (int, error) {
	rows, err := readRows(r)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	updated := 0
	for _, row := range rows {
		p, ok := s.profiles[row[ColPatientID]]
		if !ok {
			continue
		}
		p.SetHealth(healthFromRow(row))
		updated++
	}
	return updated, nil
}

// Get returns the profile for id.
func (s *Store) Get(id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.profiles) == 0 {
		return nil, fmt.Errorf("%w: no patient data available", ErrNotFound)
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// IDs returns the loaded patient ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func readRows(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("patient data has no header")
	}
	if err != nil {
		return nil, fmt.Errorf("read patient data header: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read patient data: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
