// Package persist defines the durable key-value slot the budget state is saved into.
package persist

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned by slots when asked for the empty key.
var ErrEmptyKey = errors.New("empty slot key")

// Ports for outbound adapters.
type (
	// Slot stores one opaque payload per key. Writes are last-writer-wins.
	Slot interface {
		// Load returns the payload for key. found is false when nothing was ever saved.
		Load(ctx context.Context, key string) (data []byte, found bool, err error)
		// Save replaces the payload stored under key.
		Save(ctx context.Context, key string, data []byte) error
	}
)
