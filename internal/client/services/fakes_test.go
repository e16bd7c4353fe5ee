package services

import (
	"context"
	"io"
	"sync"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
)

// memStore is an in-memory SessionStore.
type memStore struct {
	mu     sync.Mutex
	cred   *models.Credential
	saves  int
	clears int
}

func signedInAs(u models.User) *memStore {
	return &memStore{cred: &models.Credential{Token: "tok", User: u}}
}

func (m *memStore) Save(_ context.Context, token string, user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &models.Credential{Token: token, User: user}
	m.saves++
}

func (m *memStore) Load(context.Context) *models.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil
	}
	c := *m.cred
	return &c
}

func (m *memStore) Clear(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	m.clears++
}

// fakeAPI implements client.API with canned results and call counters.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	loginCred models.Credential
	loginErr  error
	me        models.User
	meErr     error

	pending       []models.EventProposal
	approved      []models.EventProposal
	listErr       error
	event         models.EventProposal
	getErr        error
	created       models.EventProposal
	createErr     error
	transition    models.EventProposal
	transitionErr error
	advancedTo    models.Phase
	report        models.PhaseReport
	imageURL      string
	uploadErr     error
	notifications []models.Notification
	notifyErr     error

	// gate, when set, blocks transitions until closed.
	gate chan struct{}
}

var _ client.API = (*fakeAPI)(nil)

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) wait() {
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (models.Credential, error) {
	f.hit("login")
	return f.loginCred, f.loginErr
}

func (f *fakeAPI) Me(context.Context) (models.User, error) {
	f.hit("me")
	return f.me, f.meErr
}

func (f *fakeAPI) ListPending(context.Context) ([]models.EventProposal, error) {
	f.hit("pending")
	return f.pending, f.listErr
}

func (f *fakeAPI) ListApproved(context.Context) ([]models.EventProposal, error) {
	f.hit("approved")
	return f.approved, f.listErr
}

func (f *fakeAPI) GetEvent(context.Context, int64) (models.EventProposal, error) {
	f.hit("get")
	return f.event, f.getErr
}

func (f *fakeAPI) CreateEvent(_ context.Context, d models.Draft) (models.EventProposal, error) {
	f.hit("create")
	return f.created, f.createErr
}

func (f *fakeAPI) Approve(context.Context, int64) (models.EventProposal, error) {
	f.hit("approve")
	f.wait()
	return f.transition, f.transitionErr
}

func (f *fakeAPI) Reject(context.Context, int64) (models.EventProposal, error) {
	f.hit("reject")
	f.wait()
	return f.transition, f.transitionErr
}

func (f *fakeAPI) AdvancePhase(_ context.Context, _ int64, to models.Phase, report models.PhaseReport) (models.EventProposal, error) {
	f.hit("advance")
	f.mu.Lock()
	f.advancedTo, f.report = to, report
	f.mu.Unlock()
	f.wait()
	return f.transition, f.transitionErr
}

func (f *fakeAPI) UploadImage(_ context.Context, _ int64, _ string, content io.Reader) (string, error) {
	f.hit("upload")
	_, _ = io.Copy(io.Discard, content)
	return f.imageURL, f.uploadErr
}

func (f *fakeAPI) ListNotifications(context.Context) ([]models.Notification, error) {
	f.hit("notifications")
	return f.notifications, f.notifyErr
}
