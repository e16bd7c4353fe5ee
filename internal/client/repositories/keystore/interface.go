// Package keystore persists opaque key/value blobs in the on-device SQLite
// database. Callers seal values before handing them in; the repository never
// sees plaintext.
package keystore

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes every listed key; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
}
