// Package memory is a process-local persist.Slot. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"budget/internal/persist"
)

var _ persist.Slot = (*Slot)(nil)

type Slot struct {
	mu    sync.Mutex
	items map[string][]byte
}

func New() *Slot {
	return &Slot{items: map[string][]byte{}}
}

// Load returns a copy of the stored payload.
func (s *Slot) Load(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, persist.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Save stores a copy of data under key.
func (s *Slot) Save(_ context.Context, key string, data []byte) error {
	if key == "" {
		return persist.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), data...)
	return nil
}
