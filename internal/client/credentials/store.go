package credentials

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/common"
	"github.com/dmitrijs2005/eventdesk/internal/logging"
)

// Store is the single source of truth for "am I logged in, as whom".
//
// The in-memory session is authoritative for the life of the process; the
// backend only makes it survive restarts. Persistence failures are logged
// and never surface to callers.
type Store struct {
	backend Backend
	log     logging.Logger
	now     func() time.Time

	// persist serializes every write path (Save, Clear, the first backend
	// read and the expiry drop) so their backend effects never interleave.
	persist sync.Mutex

	mu      sync.RWMutex
	loaded  bool
	session *models.Credential
}

func NewStore(backend Backend, log logging.Logger) *Store {
	return &Store{backend: backend, log: log, now: time.Now}
}

// Save replaces the session. token and user become visible to Load
// immediately even if the backend write fails.
func (s *Store) Save(ctx context.Context, token string, user models.User) {
	s.persist.Lock()
	defer s.persist.Unlock()

	s.mu.Lock()
	s.session = &models.Credential{Token: token, User: user}
	s.loaded = true
	s.mu.Unlock()

	userJSON, err := json.Marshal(user)
	if err != nil {
		s.log.Error(ctx, "encode user for storage", "error", err)
		return
	}
	err = s.backend.SetAll(ctx, map[string][]byte{
		common.TokenStorageKey: []byte(token),
		common.UserStorageKey:  userJSON,
	})
	if err != nil {
		s.log.Error(ctx, "persist credentials", "error", err)
	}
}

// Load returns a copy of the current session, or nil when logged out.
// Read or decode errors, a half-written session and an expired JWT all
// yield nil.
func (s *Store) Load(ctx context.Context) *models.Credential {
	s.mu.RLock()
	loaded, session := s.loaded, s.session
	s.mu.RUnlock()

	if !loaded {
		session = s.loadBackend(ctx)
	}

	if session == nil {
		return nil
	}
	if exp, ok := TokenExpiry(session.Token); ok && !s.now().Before(exp) {
		if !s.dropExpired(ctx, session, exp) {
			// replaced by a newer session meanwhile
			return s.Load(ctx)
		}
		return nil
	}

	c := *session
	return &c
}

// loadBackend fills the in-memory session from the backend once.
func (s *Store) loadBackend(ctx context.Context) *models.Credential {
	s.persist.Lock()
	defer s.persist.Unlock()

	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()

	if !loaded {
		session := s.readBackend(ctx)
		s.mu.Lock()
		s.session, s.loaded = session, true
		s.mu.Unlock()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// dropExpired clears the session only while it is still the one found
// expired. It reports whether it did.
func (s *Store) dropExpired(ctx context.Context, expired *models.Credential, exp time.Time) bool {
	s.persist.Lock()
	defer s.persist.Unlock()

	s.mu.Lock()
	if s.session != expired {
		s.mu.Unlock()
		return false
	}
	s.session = nil
	s.mu.Unlock()

	s.log.Info(ctx, "stored token expired", "expired_at", exp)
	s.deleteKeys(ctx)
	return true
}

func (s *Store) readBackend(ctx context.Context) *models.Credential {
	token, err := s.backend.Get(ctx, common.TokenStorageKey)
	if err != nil {
		s.log.Warn(ctx, "read stored token", "error", err)
		return nil
	}
	userJSON, err := s.backend.Get(ctx, common.UserStorageKey)
	if err != nil {
		s.log.Warn(ctx, "read stored user", "error", err)
		return nil
	}
	if token == nil && userJSON == nil {
		return nil
	}
	if token == nil || userJSON == nil {
		s.log.Warn(ctx, "discarding half-written session")
		s.deleteKeys(ctx)
		return nil
	}

	var user models.User
	if err := json.Unmarshal(userJSON, &user); err != nil {
		s.log.Warn(ctx, "decode stored user", "error", err)
		return nil
	}
	c := &models.Credential{Token: string(token), User: user}
	if !c.Valid() {
		return nil
	}
	return c
}

// Token is shorthand for the bearer token of the current session, "" when
// logged out.
func (s *Store) Token(ctx context.Context) string {
	if c := s.Load(ctx); c != nil {
		return c.Token
	}
	return ""
}

// Clear drops the session from memory and storage. It is idempotent.
func (s *Store) Clear(ctx context.Context) {
	s.persist.Lock()
	defer s.persist.Unlock()

	s.mu.Lock()
	s.session = nil
	s.loaded = true
	s.mu.Unlock()

	s.deleteKeys(ctx)
}

func (s *Store) deleteKeys(ctx context.Context) {
	if err := s.backend.Delete(ctx, common.TokenStorageKey, common.UserStorageKey); err != nil {
		s.log.Error(ctx, "remove stored credentials", "error", err)
	}
}

func (s *Store) Close() error {
	return s.backend.Close()
}
