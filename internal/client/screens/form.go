package screens

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/services"
)

// FormScreen submits a new proposal. The submit control is disabled while a
// submission is outstanding.
type FormScreen struct {
	events services.EventService

	mu         sync.Mutex
	submitting bool
	created    *models.EventProposal
}

func NewFormScreen(events services.EventService) *FormScreen {
	return &FormScreen{events: events}
}

func (f *FormScreen) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Submit sends draft. A second Submit while the first is in flight fails
// with ErrBusy and sends nothing.
func (f *FormScreen) Submit(ctx context.Context, draft models.Draft) (models.EventProposal, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return models.EventProposal{}, ErrBusy
	}
	f.submitting = true
	f.mu.Unlock()

	e, err := f.events.Submit(ctx, draft)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		return models.EventProposal{}, err
	}
	f.created = &e
	return e, nil
}

// Created is the last proposal this form submitted.
func (f *FormScreen) Created() (models.EventProposal, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.created == nil {
		return models.EventProposal{}, false
	}
	return *f.created, true
}
