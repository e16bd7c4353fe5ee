package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/workflow"
	"github.com/dmitrijs2005/eventdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingProposal() models.EventProposal {
	return models.EventProposal{ID: 9, Draft: models.Draft{Name: "Taller X"}, Status: models.StatusPending, Phase: models.PhasePlanning}
}

func TestEventService_GuardFiresBeforeDispatch(t *testing.T) {
	rejected := pendingProposal()
	rejected.Status = models.StatusRejected
	approved := pendingProposal()
	approved.Status = models.StatusApproved

	tests := []struct {
		name string
		user models.User
		run  func(EventService) error
		want error
	}{
		{"student approves", student, func(s EventService) error {
			_, err := s.Approve(context.Background(), pendingProposal())
			return err
		}, workflow.ErrRoleNotAllowed},
		{"approve approved", admin, func(s EventService) error {
			_, err := s.Approve(context.Background(), approved)
			return err
		}, workflow.ErrIllegalTransition},
		{"reject rejected", admin, func(s EventService) error {
			_, err := s.Reject(context.Background(), rejected)
			return err
		}, workflow.ErrIllegalTransition},
		{"advance rejected", admin, func(s EventService) error {
			_, err := s.Advance(context.Background(), rejected, models.PhaseReport{})
			return err
		}, workflow.ErrIllegalTransition},
		{"advance pending", admin, func(s EventService) error {
			_, err := s.Advance(context.Background(), pendingProposal(), models.PhaseReport{})
			return err
		}, workflow.ErrIllegalTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			svc := NewEventService(api, signedInAs(tt.user), logging.NewNopLogger())

			assert.ErrorIs(t, tt.run(svc), tt.want)
			for _, call := range []string{"approve", "reject", "advance"} {
				assert.Zero(t, api.count(call), call)
			}
		})
	}
}

func TestEventService_SignedOutIsRefused(t *testing.T) {
	api := &fakeAPI{}
	svc := NewEventService(api, &memStore{}, logging.NewNopLogger())

	_, err := svc.Approve(context.Background(), pendingProposal())
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = svc.Submit(context.Background(), models.Draft{Name: "x", EventTypes: []string{"t"}})
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Zero(t, api.count("approve"))
	assert.Zero(t, api.count("create"))
}

func TestEventService_ApproveReturnsServerState(t *testing.T) {
	confirmed := pendingProposal()
	confirmed.Status = models.StatusApproved
	api := &fakeAPI{transition: confirmed}
	svc := NewEventService(api, signedInAs(admin), logging.NewNopLogger())

	got, err := svc.Approve(context.Background(), pendingProposal())
	require.NoError(t, err)
	assert.Equal(t, confirmed, got)
}

func TestEventService_FailureLeavesNoState(t *testing.T) {
	api := &fakeAPI{transitionErr: &client.APIError{Kind: client.KindNetworkUnavailable}}
	svc := NewEventService(api, signedInAs(admin), logging.NewNopLogger())

	got, err := svc.Reject(context.Background(), pendingProposal())
	assert.ErrorIs(t, err, client.ErrNetworkUnavailable)
	assert.Equal(t, models.EventProposal{}, got)
	assert.Zero(t, api.count("get"))
}

func TestEventService_ConflictRefetches(t *testing.T) {
	current := pendingProposal()
	current.Status = models.StatusApproved
	api := &fakeAPI{
		transitionErr: &client.APIError{Kind: client.KindValidation, Message: "El evento ya fue revisado", Conflict: true},
		event:         current,
	}
	svc := NewEventService(api, signedInAs(admin), logging.NewNopLogger())

	got, err := svc.Approve(context.Background(), pendingProposal())
	assert.ErrorIs(t, err, client.ErrConflict)
	assert.ErrorIs(t, err, client.ErrValidation)
	assert.Equal(t, current, got)
	assert.Equal(t, 1, api.count("get"))
}

func TestEventService_DuplicateInFlightActionsCollapse(t *testing.T) {
	confirmed := pendingProposal()
	confirmed.Status = models.StatusApproved
	api := &fakeAPI{transition: confirmed, gate: make(chan struct{})}
	svc := NewEventService(api, signedInAs(admin), logging.NewNopLogger())

	const n = 5
	var wg sync.WaitGroup
	results := make([]models.EventProposal, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Approve(context.Background(), pendingProposal())
		}(i)
	}

	require.Eventually(t, func() bool { return api.count("approve") == 1 }, time.Second, 5*time.Millisecond)
	// let the other callers join the in-flight request
	time.Sleep(20 * time.Millisecond)
	close(api.gate)
	wg.Wait()

	assert.Equal(t, 1, api.count("approve"))
	for i := 0; i < n; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, confirmed, results[i])
	}
}

func TestEventService_AdvanceSendsNextPhase(t *testing.T) {
	p := pendingProposal()
	p.Status = models.StatusApproved
	p.Phase = models.PhaseExecution
	next := p
	next.Phase = models.PhaseClosure

	api := &fakeAPI{transition: next}
	svc := NewEventService(api, signedInAs(admin), logging.NewNopLogger())

	report := models.PhaseReport{ActualSatisfaction: "92%"}
	got, err := svc.Advance(context.Background(), p, report)
	require.NoError(t, err)

	assert.Equal(t, models.PhaseClosure, got.Phase)
	assert.Equal(t, models.PhaseClosure, api.advancedTo)
	assert.Equal(t, report, api.report)
}

func TestEventService_SubmitValidatesDraftFirst(t *testing.T) {
	api := &fakeAPI{created: models.EventProposal{ID: 3, Draft: models.Draft{Name: "Taller X"}, Status: models.StatusPending, Phase: 1}}
	svc := NewEventService(api, signedInAs(student), logging.NewNopLogger())

	_, err := svc.Submit(context.Background(), models.Draft{Name: ""})
	assert.ErrorIs(t, err, models.ErrInvalidDraft)
	assert.Zero(t, api.count("create"))

	got, err := svc.Submit(context.Background(), models.Draft{Name: "Taller X", EventTypes: []string{"taller"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
}

func TestEventService_ReadsWrapErrors(t *testing.T) {
	api := &fakeAPI{listErr: &client.APIError{Kind: client.KindServerError}, getErr: &client.APIError{Kind: client.KindNotFound}}
	svc := NewEventService(api, signedInAs(admin), logging.NewNopLogger())

	_, err := svc.Pending(context.Background())
	assert.ErrorIs(t, err, client.ErrServerError)
	assert.True(t, strings.HasPrefix(err.Error(), "list pending events"))

	_, err = svc.Get(context.Background(), 4)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestEventService_UploadImage(t *testing.T) {
	api := &fakeAPI{imageURL: "/uploads/1.png"}
	svc := NewEventService(api, signedInAs(student), logging.NewNopLogger())

	url, err := svc.UploadImage(context.Background(), 1, "1.png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1.png", url)

	api.uploadErr = errors.New("boom")
	_, err = svc.UploadImage(context.Background(), 1, "1.png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestNotificationService_NewestFirst(t *testing.T) {
	t0 := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{notifications: []models.Notification{
		{ID: 1, CreatedAt: t0},
		{ID: 2, CreatedAt: t0.Add(time.Hour)},
	}}

	got, err := NewNotificationService(api).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestLoadDashboard(t *testing.T) {
	api := &fakeAPI{
		pending:       []models.EventProposal{pendingProposal()},
		notifications: []models.Notification{{ID: 1}, {ID: 2, Read: true}},
	}
	events := NewEventService(api, signedInAs(admin), logging.NewNopLogger())

	d, err := LoadDashboard(context.Background(), events, NewNotificationService(api))
	require.NoError(t, err)
	assert.Len(t, d.Pending, 1)
	assert.Empty(t, d.Approved)
	assert.Equal(t, 1, d.Unread())

	api.notifyErr = &client.APIError{Kind: client.KindServerError}
	_, err = LoadDashboard(context.Background(), events, NewNotificationService(api))
	assert.ErrorIs(t, err, client.ErrServerError)
}
