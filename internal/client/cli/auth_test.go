package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/screens"
	"github.com/dmitrijs2005/eventdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubInputs(t *testing.T, email string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return email, nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return password, nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

type fakeAuth struct {
	email, password string
	loginErr        error
	cred            *models.Credential
	logouts         int
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (models.User, error) {
	f.email, f.password = email, password
	if f.loginErr != nil {
		return models.User{}, f.loginErr
	}
	u := models.User{Name: "Ana", SurnamePaternal: "Rojas", Email: email, Role: models.RoleDAF}
	f.cred = &models.Credential{Token: "t", User: u}
	return u, nil
}

func (f *fakeAuth) Logout(context.Context) {
	f.logouts++
	f.cred = nil
}

func (f *fakeAuth) Restore(context.Context) (*models.Credential, error) { return f.cred, nil }
func (f *fakeAuth) Current(context.Context) *models.Credential        { return f.cred }

func newTestApp(auth *fakeAuth) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		log:          logging.NewNopLogger(),
		authService:  auth,
		pendingList:  screens.NewListScreen(screens.FilterPending, nil, auth),
		approvedList: screens.NewListScreen(screens.FilterApproved, nil, auth),
		reader:       bufio.NewReader(strings.NewReader("")),
		out:          &out,
	}, &out
}

func TestLogin_Success(t *testing.T) {
	stubInputs(t, "ana@uni.edu", []byte("secret"))
	auth := &fakeAuth{}
	a, out := newTestApp(auth)

	require.NoError(t, a.Login(context.Background()))

	assert.Equal(t, "ana@uni.edu", auth.email)
	assert.Equal(t, "secret", auth.password)
	assert.Contains(t, out.String(), "Welcome, Ana Rojas (daf)")
	assert.True(t, a.isLoggedIn(context.Background()))
	assert.Equal(t, "(ana@uni.edu daf)", a.status(context.Background()))
}

func TestLogin_ReportsFailure(t *testing.T) {
	stubInputs(t, "ana@uni.edu", []byte("wrong"))
	auth := &fakeAuth{loginErr: &client.APIError{Kind: client.KindValidation, Message: "Credenciales inválidas"}}
	a, out := newTestApp(auth)

	err := a.Login(context.Background())

	assert.ErrorIs(t, err, client.ErrValidation)
	assert.Contains(t, out.String(), "Error: Credenciales inválidas")
	assert.False(t, a.isLoggedIn(context.Background()))
	assert.Equal(t, "(guest)", a.status(context.Background()))
}

func TestLogin_PasswordReadError(t *testing.T) {
	stubInputs(t, "ana@uni.edu", nil)
	getPassword = func(io.Writer) ([]byte, error) { return nil, errors.New("no tty") }
	auth := &fakeAuth{}
	a, _ := newTestApp(auth)

	assert.Error(t, a.Login(context.Background()))
	assert.Empty(t, auth.email)
}

func TestLogoutAndWhoAmI(t *testing.T) {
	stubInputs(t, "ana@uni.edu", []byte("secret"))
	auth := &fakeAuth{}
	a, out := newTestApp(auth)
	ctx := context.Background()

	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.WhoAmI(ctx))
	assert.Contains(t, out.String(), "Ana Rojas <ana@uni.edu>\nrole: daf")

	a.lastFailed = func(context.Context) error { return nil }
	require.NoError(t, a.Logout(ctx))
	assert.Equal(t, 1, auth.logouts)
	assert.Nil(t, a.lastFailed)

	out.Reset()
	require.NoError(t, a.WhoAmI(ctx))
	assert.Equal(t, "Not signed in.\n", out.String())
}
