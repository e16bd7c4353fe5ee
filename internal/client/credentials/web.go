package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/eventdesk/internal/filex"
)

// WebBackend mimics browser page storage: a flat string map kept in one JSON
// file. Writes go through a temp file and rename so a crash never leaves
// half a session behind.
type WebBackend struct {
	path string
	mu   sync.Mutex
}

func NewWebBackend(path string) *WebBackend {
	return &WebBackend{path: path}
}

func (b *WebBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	return m, nil
}

func (b *WebBackend) write(m map[string]string) error {
	if len(m) == 0 {
		if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", b.path, err)
		}
		return nil
	}

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := filex.EnsureDir(filepath.Dir(b.path)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (b *WebBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.read()
	if err != nil {
		return nil, err
	}
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (b *WebBackend) SetAll(ctx context.Context, values map[string][]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.read()
	if err != nil {
		// a corrupt file is replaced rather than blocking login
		m = map[string]string{}
	}
	for k, v := range values {
		m[k] = string(v)
	}
	return b.write(m)
}

func (b *WebBackend) Delete(ctx context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.read()
	if err != nil {
		m = map[string]string{}
	}
	for _, k := range keys {
		delete(m, k)
	}
	return b.write(m)
}

func (b *WebBackend) Close() error { return nil }
