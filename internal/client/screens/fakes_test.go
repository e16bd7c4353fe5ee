package screens

import (
	"context"
	"io"
	"sync"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/services"
)

type fakeAuth struct {
	cred *models.Credential
}

func as(role models.Role) *fakeAuth {
	return &fakeAuth{cred: &models.Credential{Token: "t", User: models.User{ID: 1, Email: "x@uni.edu", Role: role}}}
}

func (a *fakeAuth) Login(context.Context, string, string) (models.User, error) {
	return a.cred.User, nil
}
func (a *fakeAuth) Logout(context.Context) { a.cred = nil }
func (a *fakeAuth) Restore(context.Context) (*models.Credential, error) {
	return a.cred, nil
}
func (a *fakeAuth) Current(context.Context) *models.Credential { return a.cred }

type reply struct {
	items    []models.EventProposal
	proposal models.EventProposal
	err      error
}

// fakeEvents answers from queued replies. Lists block on their gate when
// one is queued, so a test can hold a response in flight.
type fakeEvents struct {
	mu         sync.Mutex
	lists      []reply
	gates      []chan struct{}
	results    map[string]reply
	get        reply
	submitted  []models.Draft
	actionGate chan struct{}
	calls      map[string]int
}

var _ services.EventService = (*fakeEvents)(nil)

func newFakeEvents() *fakeEvents {
	return &fakeEvents{results: map[string]reply{}, calls: map[string]int{}}
}

// queueList adds a list reply; when hold is true the reply waits until the
// returned release func runs.
func (f *fakeEvents) queueList(items []models.EventProposal, err error, hold bool) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var gate chan struct{}
	if hold {
		gate = make(chan struct{})
	}
	f.lists = append(f.lists, reply{items: items, err: err})
	f.gates = append(f.gates, gate)
	return func() {
		if gate != nil {
			close(gate)
		}
	}
}

func (f *fakeEvents) list() ([]models.EventProposal, error) {
	f.mu.Lock()
	f.calls["list"]++
	if len(f.lists) == 0 {
		f.mu.Unlock()
		return nil, nil
	}
	r, gate := f.lists[0], f.gates[0]
	f.lists, f.gates = f.lists[1:], f.gates[1:]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return r.items, r.err
}

func (f *fakeEvents) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeEvents) action(name string) (models.EventProposal, error) {
	f.mu.Lock()
	f.calls[name]++
	r := f.results[name]
	gate := f.actionGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return r.proposal, r.err
}

func (f *fakeEvents) Pending(context.Context) ([]models.EventProposal, error)  { return f.list() }
func (f *fakeEvents) Approved(context.Context) ([]models.EventProposal, error) { return f.list() }

func (f *fakeEvents) Get(context.Context, int64) (models.EventProposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["get"]++
	return f.get.proposal, f.get.err
}

func (f *fakeEvents) Submit(_ context.Context, d models.Draft) (models.EventProposal, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, d)
	f.mu.Unlock()
	return f.action("submit")
}

func (f *fakeEvents) Approve(context.Context, models.EventProposal) (models.EventProposal, error) {
	return f.action("approve")
}

func (f *fakeEvents) Reject(context.Context, models.EventProposal) (models.EventProposal, error) {
	return f.action("reject")
}

func (f *fakeEvents) Advance(context.Context, models.EventProposal, models.PhaseReport) (models.EventProposal, error) {
	return f.action("advance")
}

func (f *fakeEvents) UploadImage(_ context.Context, _ int64, _ string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	p, err := f.action("upload")
	return p.ImageURL, err
}
