// Package workflow is the approval state machine of event proposals.
//
// A proposal starts pending, is approved or rejected by a reviewer, and
// while approved moves forward one phase at a time from planning to
// closure. Rejected proposals never move again. Every function here is
// pure: Check decides whether a role may take an action, Apply computes the
// state the server will report after it succeeds.
package workflow

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
)

type Action string

const (
	ActionSubmit       Action = "submit"
	ActionApprove      Action = "approve"
	ActionReject       Action = "reject"
	ActionAdvancePhase Action = "advance_phase"
)

func (a Action) String() string { return string(a) }

var (
	ErrRoleNotAllowed    = errors.New("role not allowed to perform this action")
	ErrIllegalTransition = errors.New("illegal state transition")
	ErrUnknownAction     = errors.New("unknown action")
)

// IsReviewer reports whether role belongs to the admin class that reviews
// proposals and drives their phases.
func IsReviewer(role models.Role) bool {
	switch role {
	case models.RoleAdmin, models.RoleDAF, models.RoleCommunications, models.RoleAcademic:
		return true
	}
	return false
}

// RequiresConfirmation reports whether the front end must ask the user
// before dispatching a.
func RequiresConfirmation(a Action) bool {
	return a == ActionReject
}

// Check reports whether role may perform a on p. It returns nil, or an error
// wrapping ErrRoleNotAllowed, ErrIllegalTransition or ErrUnknownAction.
// For ActionSubmit, p is the proposal being created and only the role is
// considered.
func Check(role models.Role, a Action, p models.EventProposal) error {
	switch a {
	case ActionSubmit:
		if role == "" {
			return fmt.Errorf("%w: submit requires a signed-in user", ErrRoleNotAllowed)
		}
		return nil

	case ActionApprove, ActionReject:
		if !IsReviewer(role) {
			return fmt.Errorf("%w: %s cannot %s", ErrRoleNotAllowed, role, a)
		}
		if p.Status != models.StatusPending {
			return fmt.Errorf("%w: cannot %s a %s proposal", ErrIllegalTransition, a, p.Status)
		}
		return nil

	case ActionAdvancePhase:
		if !IsReviewer(role) {
			return fmt.Errorf("%w: %s cannot advance phases", ErrRoleNotAllowed, role)
		}
		if p.Status != models.StatusApproved {
			return fmt.Errorf("%w: only approved proposals advance, this one is %s", ErrIllegalTransition, p.Status)
		}
		if p.Phase >= models.PhaseClosure {
			return fmt.Errorf("%w: proposal is already in its last phase", ErrIllegalTransition)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, a)
}

// Apply returns the state p moves to when a succeeds. It does not consider
// roles; callers run Check first.
func Apply(a Action, p models.EventProposal) (models.EventProposal, error) {
	switch a {
	case ActionSubmit:
		p.Status = models.StatusPending
		p.Phase = models.PhasePlanning
		return p, nil

	case ActionApprove, ActionReject:
		if p.Status != models.StatusPending {
			return p, fmt.Errorf("%w: cannot %s a %s proposal", ErrIllegalTransition, a, p.Status)
		}
		if a == ActionApprove {
			p.Status = models.StatusApproved
		} else {
			p.Status = models.StatusRejected
		}
		return p, nil

	case ActionAdvancePhase:
		if p.Status != models.StatusApproved || p.Phase >= models.PhaseClosure {
			return p, fmt.Errorf("%w: cannot advance a %s proposal in phase %d", ErrIllegalTransition, p.Status, p.Phase)
		}
		p.Phase++
		return p, nil
	}
	return p, fmt.Errorf("%w: %q", ErrUnknownAction, a)
}

// NextPhase is the phase an advance on p moves it to.
func NextPhase(p models.EventProposal) (models.Phase, error) {
	next, err := Apply(ActionAdvancePhase, p)
	if err != nil {
		return 0, err
	}
	return next.Phase, nil
}

// reviewActions are the row actions in display order.
var reviewActions = []Action{ActionApprove, ActionReject, ActionAdvancePhase}

// AvailableActions lists the actions role may take on p right now.
func AvailableActions(role models.Role, p models.EventProposal) []Action {
	var out []Action
	for _, a := range reviewActions {
		if Check(role, a, p) == nil {
			out = append(out, a)
		}
	}
	return out
}
