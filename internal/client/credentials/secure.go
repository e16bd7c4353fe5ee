package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/eventdesk/internal/client/repositories/keystore"
	"github.com/dmitrijs2005/eventdesk/internal/common"
	"github.com/dmitrijs2005/eventdesk/internal/cryptox"
	"github.com/dmitrijs2005/eventdesk/internal/dbx"
	"github.com/dmitrijs2005/eventdesk/internal/filex"
)

const (
	saltKey      = "kdf_salt"
	deviceKeyLen = 32
)

// SecureBackend is the native keystore: an SQLite database whose values are
// sealed with AES-GCM under a key derived from a device secret.
type SecureBackend struct {
	db  *sql.DB
	key []byte
}

// NewSecureBackend wires an already migrated database. secret is stretched
// with the per-database salt, created on first use.
func NewSecureBackend(ctx context.Context, db *sql.DB, secret []byte) (*SecureBackend, error) {
	repo := keystore.NewSQLiteRepository(db)

	salt, err := repo.Get(ctx, saltKey)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		salt = common.GenerateRandByteArray(16)
		if err := repo.Set(ctx, saltKey, salt); err != nil {
			return nil, err
		}
	}

	return &SecureBackend{db: db, key: cryptox.DeriveKey(secret, salt)}, nil
}

// OpenSecureBackend opens <dir>/keystore.db. With an empty secret the device
// secret is read from <dir>/device.key, generated on first run.
func OpenSecureBackend(ctx context.Context, dir string, secret string) (*SecureBackend, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}

	s := []byte(secret)
	if len(s) == 0 {
		if s, err = deviceSecret(filepath.Join(dir, "device.key")); err != nil {
			return nil, err
		}
	}

	db, err := keystore.OpenDatabase(ctx, filepath.Join(dir, "keystore.db"))
	if err != nil {
		return nil, err
	}
	b, err := NewSecureBackend(ctx, db, s)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func deviceSecret(path string) ([]byte, error) {
	s, err := os.ReadFile(path)
	if err == nil && len(s) == deviceKeyLen {
		return s, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read device key: %w", err)
	}
	s = common.GenerateRandByteArray(deviceKeyLen)
	if err := os.WriteFile(path, s, 0o600); err != nil {
		return nil, fmt.Errorf("write device key: %w", err)
	}
	return s, nil
}

func (b *SecureBackend) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := keystore.NewSQLiteRepository(b.db).Get(ctx, key)
	if err != nil || sealed == nil {
		return nil, err
	}
	plain, err := cryptox.Open(sealed, b.key)
	if err != nil {
		return nil, fmt.Errorf("unseal %s: %w", key, err)
	}
	return plain, nil
}

func (b *SecureBackend) SetAll(ctx context.Context, values map[string][]byte) error {
	sealed := make(map[string][]byte, len(values))
	for k, v := range values {
		s, err := cryptox.Seal(v, b.key)
		if err != nil {
			return fmt.Errorf("seal %s: %w", k, err)
		}
		sealed[k] = s
	}

	return dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := keystore.NewSQLiteRepository(tx)
		for k, v := range sealed {
			if err := repo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *SecureBackend) Delete(ctx context.Context, keys ...string) error {
	return keystore.NewSQLiteRepository(b.db).Delete(ctx, keys...)
}

func (b *SecureBackend) Close() error {
	return b.db.Close()
}
