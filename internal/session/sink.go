package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Sink stores finished session logs. Sinks only append.
type Sink interface {
	Append(ctx context.Context, log Log) error
}

// FileSink appends one JSON object per session to a file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Append(_ context.Context, log Log) error {
	line, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode session log: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write session log: %w", err)
	}
	return f.Close()
}
