package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/workflow"
	"github.com/dmitrijs2005/eventdesk/internal/logging"
	"golang.org/x/sync/singleflight"
)

// EventService runs proposal reads and workflow transitions.
//
// Every transition is checked against the workflow with the role of the
// signed-in user before anything is sent, so an illegal action never
// reaches the network. The returned proposal is always the server's view.
// On a conflict the transition methods return the conflict error together
// with the freshly fetched proposal (zero if that fetch failed too).
type EventService interface {
	Pending(ctx context.Context) ([]models.EventProposal, error)
	Approved(ctx context.Context) ([]models.EventProposal, error)
	Get(ctx context.Context, id int64) (models.EventProposal, error)
	Submit(ctx context.Context, draft models.Draft) (models.EventProposal, error)
	Approve(ctx context.Context, p models.EventProposal) (models.EventProposal, error)
	Reject(ctx context.Context, p models.EventProposal) (models.EventProposal, error)
	Advance(ctx context.Context, p models.EventProposal, report models.PhaseReport) (models.EventProposal, error)
	UploadImage(ctx context.Context, id int64, fileName string, content io.Reader) (string, error)
}

type eventService struct {
	api   client.API
	store SessionStore
	log   logging.Logger

	inflight singleflight.Group
}

func NewEventService(api client.API, store SessionStore, log logging.Logger) EventService {
	return &eventService{api: api, store: store, log: log}
}

func (s *eventService) role(ctx context.Context) (models.Role, error) {
	cred := s.store.Load(ctx)
	if cred == nil {
		return "", ErrNotSignedIn
	}
	return cred.User.Role, nil
}

func (s *eventService) Pending(ctx context.Context) ([]models.EventProposal, error) {
	events, err := s.api.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	return events, nil
}

func (s *eventService) Approved(ctx context.Context) ([]models.EventProposal, error) {
	events, err := s.api.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approved events: %w", err)
	}
	return events, nil
}

func (s *eventService) Get(ctx context.Context, id int64) (models.EventProposal, error) {
	e, err := s.api.GetEvent(ctx, id)
	if err != nil {
		return models.EventProposal{}, fmt.Errorf("get event %d: %w", id, err)
	}
	return e, nil
}

func (s *eventService) Submit(ctx context.Context, draft models.Draft) (models.EventProposal, error) {
	role, err := s.role(ctx)
	if err != nil {
		return models.EventProposal{}, err
	}
	if err := workflow.Check(role, workflow.ActionSubmit, models.EventProposal{Draft: draft}); err != nil {
		return models.EventProposal{}, err
	}
	if err := draft.Validate(); err != nil {
		return models.EventProposal{}, err
	}

	e, err := s.api.CreateEvent(ctx, draft)
	if err != nil {
		return models.EventProposal{}, fmt.Errorf("submit event: %w", err)
	}
	s.log.Info(ctx, "event submitted", "event_id", e.ID)
	return e, nil
}

func (s *eventService) Approve(ctx context.Context, p models.EventProposal) (models.EventProposal, error) {
	return s.transition(ctx, workflow.ActionApprove, p, func(ctx context.Context) (models.EventProposal, error) {
		return s.api.Approve(ctx, p.ID)
	})
}

func (s *eventService) Reject(ctx context.Context, p models.EventProposal) (models.EventProposal, error) {
	return s.transition(ctx, workflow.ActionReject, p, func(ctx context.Context) (models.EventProposal, error) {
		return s.api.Reject(ctx, p.ID)
	})
}

// Advance moves p one phase forward, sending the part of report that
// belongs to the target phase.
func (s *eventService) Advance(ctx context.Context, p models.EventProposal, report models.PhaseReport) (models.EventProposal, error) {
	return s.transition(ctx, workflow.ActionAdvancePhase, p, func(ctx context.Context) (models.EventProposal, error) {
		to, err := workflow.NextPhase(p)
		if err != nil {
			return models.EventProposal{}, err
		}
		return s.api.AdvancePhase(ctx, p.ID, to, report)
	})
}

type transitionResult struct {
	proposal models.EventProposal
	err      error
}

// transition guards, dispatches and reconciles one workflow action.
// Concurrent calls for the same action on the same proposal share a single
// request and its result.
func (s *eventService) transition(ctx context.Context, a workflow.Action, p models.EventProposal,
	dispatch func(ctx context.Context) (models.EventProposal, error)) (models.EventProposal, error) {

	role, err := s.role(ctx)
	if err != nil {
		return models.EventProposal{}, err
	}
	if err := workflow.Check(role, a, p); err != nil {
		return models.EventProposal{}, err
	}

	key := fmt.Sprintf("%s:%d", a, p.ID)
	v, _, _ := s.inflight.Do(key, func() (any, error) {
		got, err := dispatch(ctx)
		return transitionResult{proposal: got, err: err}, nil
	})
	res := v.(transitionResult)

	if res.err != nil {
		if errors.Is(res.err, client.ErrConflict) {
			s.log.Info(ctx, "transition conflict, refreshing", "action", a, "event_id", p.ID)
			fresh, ferr := s.api.GetEvent(ctx, p.ID)
			if ferr != nil {
				s.log.Warn(ctx, "refresh after conflict failed", "event_id", p.ID, "error", ferr)
				fresh = models.EventProposal{}
			}
			return fresh, fmt.Errorf("%s event %d: %w", a, p.ID, res.err)
		}
		return models.EventProposal{}, fmt.Errorf("%s event %d: %w", a, p.ID, res.err)
	}

	if want, err := workflow.Apply(a, p); err == nil && (want.Status != res.proposal.Status || want.Phase != res.proposal.Phase) {
		s.log.Warn(ctx, "server state differs from workflow",
			"event_id", p.ID, "action", a,
			"want_status", want.Status, "got_status", res.proposal.Status,
			"want_phase", want.Phase, "got_phase", res.proposal.Phase)
	}
	s.log.Info(ctx, "transition confirmed", "action", a, "event_id", p.ID, "status", res.proposal.Status, "phase", res.proposal.Phase)
	return res.proposal, nil
}

func (s *eventService) UploadImage(ctx context.Context, id int64, fileName string, content io.Reader) (string, error) {
	if _, err := s.role(ctx); err != nil {
		return "", err
	}
	url, err := s.api.UploadImage(ctx, id, fileName, content)
	if err != nil {
		return "", fmt.Errorf("upload image for event %d: %w", id, err)
	}
	return url, nil
}
