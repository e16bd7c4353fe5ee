package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/logging"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrNotSignedIn        = errors.New("not signed in")
)

// SessionStore is the part of the credential store the services write to.
// *credentials.Store satisfies it.
type SessionStore interface {
	Save(ctx context.Context, token string, user models.User)
	Load(ctx context.Context) *models.Credential
	Clear(ctx context.Context)
}

// AuthService defines authentication operations for the front end.
//
// Contract:
//   - Login: authenticate against the backend and persist the session.
//   - Logout: drop the session locally. Idempotent.
//   - Restore: bring back a persisted session at start-up and refresh its
//     user snapshot from /auth/me.
//   - Current: the session as it is right now, nil when logged out.
type AuthService interface {
	Login(ctx context.Context, email, password string) (models.User, error)
	Logout(ctx context.Context)
	Restore(ctx context.Context) (*models.Credential, error)
	Current(ctx context.Context) *models.Credential
}

type authService struct {
	api   client.API
	store SessionStore
	log   logging.Logger
}

func NewAuthService(api client.API, store SessionStore, log logging.Logger) AuthService {
	return &authService{api: api, store: store, log: log}
}

func (a *authService) Login(ctx context.Context, email, password string) (models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}

	cred, err := a.api.Login(ctx, email, password)
	if err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}

	a.store.Save(ctx, cred.Token, cred.User)
	a.log.Info(ctx, "signed in", "user_id", cred.User.ID, "role", cred.User.Role)
	return cred.User, nil
}

func (a *authService) Logout(ctx context.Context) {
	a.store.Clear(ctx)
	a.log.Info(ctx, "signed out")
}

// Restore returns the persisted session, or nil when there is none.
//
// A refreshed profile replaces the stored snapshot. When the backend cannot
// be reached the stored session is kept as it is; when it answers 401 the
// API client has already cleared the store and Restore reports the error.
func (a *authService) Restore(ctx context.Context) (*models.Credential, error) {
	cred := a.store.Load(ctx)
	if cred == nil {
		return nil, nil
	}

	user, err := a.api.Me(ctx)
	switch {
	case err == nil:
		if user != cred.User {
			a.store.Save(ctx, cred.Token, user)
			cred.User = user
		}
		return cred, nil
	case errors.Is(err, client.ErrUnauthorized):
		return nil, fmt.Errorf("restore session: %w", err)
	case client.Retryable(err):
		a.log.Warn(ctx, "profile refresh failed, using stored profile", "error", err)
		return cred, nil
	}
	return nil, fmt.Errorf("restore session: %w", err)
}

func (a *authService) Current(ctx context.Context) *models.Credential {
	return a.store.Load(ctx)
}
