package screens

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/services"
	"github.com/dmitrijs2005/eventdesk/internal/client/workflow"
)

// Filter selects which proposals a list screen shows.
type Filter int

const (
	FilterPending Filter = iota
	FilterApproved
)

func (f Filter) String() string {
	if f == FilterApproved {
		return "approved"
	}
	return "pending"
}

func (f Filter) matches(p models.EventProposal) bool {
	switch f {
	case FilterPending:
		return p.Status == models.StatusPending
	case FilterApproved:
		return p.Status == models.StatusApproved
	}
	return false
}

// ListScreen is the controller of a proposal list.
type ListScreen struct {
	filter Filter
	events services.EventService
	auth   services.AuthService

	lifecycle
	items   []models.EventProposal
	loading bool
}

func NewListScreen(filter Filter, events services.EventService, auth services.AuthService) *ListScreen {
	return &ListScreen{filter: filter, events: events, auth: auth}
}

func (s *ListScreen) Filter() Filter { return s.filter }

// Focus activates the screen and fetches its list.
func (s *ListScreen) Focus(ctx context.Context) error {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Blur deactivates the screen. Responses still in flight are dropped.
func (s *ListScreen) Blur() {
	s.blur()
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// Refresh refetches the list. A response that arrives after Blur or after
// a newer Refresh is discarded and Refresh returns nil.
func (s *ListScreen) Refresh(ctx context.Context) error {
	s.mu.Lock()
	gen := s.begin()
	s.loading = true
	s.mu.Unlock()

	var (
		items []models.EventProposal
		err   error
	)
	if s.filter == FilterApproved {
		items, err = s.events.Approved(ctx)
	} else {
		items, err = s.events.Pending(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.loading = false
	}
	if !s.current(gen) {
		return nil
	}
	if err != nil {
		return err
	}
	s.items = dedupe(items)
	return nil
}

// dedupe keeps the first occurrence of every id.
func dedupe(items []models.EventProposal) []models.EventProposal {
	seen := make(map[int64]bool, len(items))
	out := make([]models.EventProposal, 0, len(items))
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}

// Items returns a copy of what the screen shows.
func (s *ListScreen) Items() []models.EventProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.EventProposal(nil), s.items...)
}

func (s *ListScreen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Busy reports whether an action on id is in flight.
func (s *ListScreen) Busy(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[id]
}

func (s *ListScreen) find(id int64) (models.EventProposal, bool) {
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.EventProposal{}, false
}

// Actions lists what the signed-in user may do with row id.
func (s *ListScreen) Actions(ctx context.Context, id int64) []workflow.Action {
	s.mu.Lock()
	p, ok := s.find(id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return actionsFor(ctx, s.auth, p)
}

func actionsFor(ctx context.Context, auth services.AuthService, p models.EventProposal) []workflow.Action {
	cred := auth.Current(ctx)
	if cred == nil {
		return nil
	}
	return workflow.AvailableActions(cred.User.Role, p)
}

func (s *ListScreen) Approve(ctx context.Context, id int64) (models.EventProposal, error) {
	return s.run(ctx, id, func(p models.EventProposal) (models.EventProposal, error) {
		return s.events.Approve(ctx, p)
	})
}

// Reject needs confirmed to be true; the front end asks the user first.
func (s *ListScreen) Reject(ctx context.Context, id int64, confirmed bool) (models.EventProposal, error) {
	if !confirmed {
		return models.EventProposal{}, ErrConfirmationRequired
	}
	return s.run(ctx, id, func(p models.EventProposal) (models.EventProposal, error) {
		return s.events.Reject(ctx, p)
	})
}

func (s *ListScreen) Advance(ctx context.Context, id int64, report models.PhaseReport) (models.EventProposal, error) {
	return s.run(ctx, id, func(p models.EventProposal) (models.EventProposal, error) {
		return s.events.Advance(ctx, p, report)
	})
}

// run dispatches one row action and applies the server's answer.
func (s *ListScreen) run(ctx context.Context, id int64, action func(models.EventProposal) (models.EventProposal, error)) (models.EventProposal, error) {
	s.mu.Lock()
	p, ok := s.find(id)
	if !ok {
		s.mu.Unlock()
		return models.EventProposal{}, fmt.Errorf("%w: %d", ErrUnknownEvent, id)
	}
	if err := s.acquire(id); err != nil {
		s.mu.Unlock()
		return models.EventProposal{}, err
	}
	s.mu.Unlock()

	got, err := action(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(id)

	switch {
	case err == nil:
		if s.active {
			s.apply(got)
		}
		return got, nil
	case errors.Is(err, client.ErrConflict) && got.ID == id:
		// the service refetched the proposal; show what the server has
		if s.active {
			s.apply(got)
		}
	}
	return models.EventProposal{}, err
}

// apply puts the server's view of p into the list: replaced in place when
// it still matches the filter, removed otherwise. It never adds a row.
func (s *ListScreen) apply(p models.EventProposal) {
	out := s.items[:0]
	for _, it := range s.items {
		if it.ID != p.ID {
			out = append(out, it)
			continue
		}
		if s.filter.matches(p) {
			out = append(out, p)
		}
	}
	s.items = out
}
