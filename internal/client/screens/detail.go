package screens

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/services"
	"github.com/dmitrijs2005/eventdesk/internal/client/workflow"
)

// DetailScreen shows one proposal and its actions.
type DetailScreen struct {
	id     int64
	events services.EventService
	auth   services.AuthService

	lifecycle
	proposal *models.EventProposal
}

func NewDetailScreen(id int64, events services.EventService, auth services.AuthService) *DetailScreen {
	return &DetailScreen{id: id, events: events, auth: auth}
}

// Focus activates the screen and loads the proposal.
func (s *DetailScreen) Focus(ctx context.Context) error {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	return s.Load(ctx)
}

func (s *DetailScreen) Blur() {
	s.blur()
}

// Load refetches the proposal, dropping the answer if the screen moved on.
func (s *DetailScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	gen := s.begin()
	s.mu.Unlock()

	p, err := s.events.Get(ctx, s.id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return nil
	}
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			s.proposal = nil
		}
		return err
	}
	s.proposal = &p
	return nil
}

// Proposal returns the loaded proposal, false before the first successful
// load.
func (s *DetailScreen) Proposal() (models.EventProposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proposal == nil {
		return models.EventProposal{}, false
	}
	return *s.proposal, true
}

func (s *DetailScreen) Actions(ctx context.Context) []workflow.Action {
	p, ok := s.Proposal()
	if !ok {
		return nil
	}
	return actionsFor(ctx, s.auth, p)
}

func (s *DetailScreen) Approve(ctx context.Context) (models.EventProposal, error) {
	return s.run(ctx, func(p models.EventProposal) (models.EventProposal, error) {
		return s.events.Approve(ctx, p)
	})
}

func (s *DetailScreen) Reject(ctx context.Context, confirmed bool) (models.EventProposal, error) {
	if !confirmed {
		return models.EventProposal{}, ErrConfirmationRequired
	}
	return s.run(ctx, func(p models.EventProposal) (models.EventProposal, error) {
		return s.events.Reject(ctx, p)
	})
}

func (s *DetailScreen) Advance(ctx context.Context, report models.PhaseReport) (models.EventProposal, error) {
	return s.run(ctx, func(p models.EventProposal) (models.EventProposal, error) {
		return s.events.Advance(ctx, p, report)
	})
}

// UploadImage attaches an image and shows the new URL once confirmed.
func (s *DetailScreen) UploadImage(ctx context.Context, fileName string, content io.Reader) (string, error) {
	s.mu.Lock()
	if err := s.acquire(s.id); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	url, err := s.events.UploadImage(ctx, s.id, fileName, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(s.id)
	if err != nil {
		return "", err
	}
	if s.active && s.proposal != nil {
		s.proposal.ImageURL = url
	}
	return url, nil
}

func (s *DetailScreen) run(ctx context.Context, action func(models.EventProposal) (models.EventProposal, error)) (models.EventProposal, error) {
	s.mu.Lock()
	if s.proposal == nil {
		s.mu.Unlock()
		return models.EventProposal{}, ErrUnknownEvent
	}
	p := *s.proposal
	if err := s.acquire(s.id); err != nil {
		s.mu.Unlock()
		return models.EventProposal{}, err
	}
	s.mu.Unlock()

	got, err := action(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(s.id)

	if err == nil || (errors.Is(err, client.ErrConflict) && got.ID == s.id) {
		if s.active {
			s.proposal = &got
		}
	}
	if err != nil {
		return models.EventProposal{}, err
	}
	return got, nil
}
