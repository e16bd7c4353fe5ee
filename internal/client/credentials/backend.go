package credentials

import (
	"context"
)

// Backend is the storage a Store persists the session into. Exactly one is
// chosen per process (see Open).
type Backend interface {
	// Get returns (nil, nil) for an absent key.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetAll writes every pair or none of them.
	SetAll(ctx context.Context, values map[string][]byte) error
	// Delete removes the keys; absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
