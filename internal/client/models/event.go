// Package models holds the canonical shapes the client works with: users,
// credentials, event proposals and notifications, plus the mapping from the
// backend's wire payloads into them.
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the primary approval gate of a proposal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Phase is the execution stage of an approved proposal.
type Phase int

const (
	PhasePlanning   Phase = 1
	PhaseReview     Phase = 2
	PhaseScheduling Phase = 3
	PhaseExecution  Phase = 4
	PhaseClosure    Phase = 5
)

func (p Phase) String() string {
	switch p {
	case PhasePlanning:
		return "planning"
	case PhaseReview:
		return "review"
	case PhaseScheduling:
		return "scheduling"
	case PhaseExecution:
		return "execution"
	case PhaseClosure:
		return "closure"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) Valid() bool {
	return p >= PhasePlanning && p <= PhaseClosure
}

type ResourceType string

const (
	ResourceTechnological ResourceType = "technological"
	ResourceFurniture     ResourceType = "furniture"
	ResourceTableware     ResourceType = "tableware"
)

type Classification struct {
	Strategic   string `json:"strategic"`
	Subcategory string `json:"subcategory"`
}

type Objective struct {
	Type       string `json:"type"`
	CustomText string `json:"customText,omitempty"`
}

type TargetSegment struct {
	SegmentName string `json:"segmentName"`
	CustomText  string `json:"customText,omitempty"`
}

type ExpectedResults struct {
	ExpectedParticipation string `json:"expectedParticipation,omitempty"`
	ExpectedSatisfaction  string `json:"expectedSatisfaction,omitempty"`
	OtherResults          string `json:"otherResults,omitempty"`
	ActualSatisfaction    string `json:"actualSatisfaction,omitempty"`
}

type Resource struct {
	ResourceType ResourceType `json:"resourceType"`
	Name         string       `json:"name"`
	Quantity     int          `json:"quantity"`
}

type CommitteeMember struct {
	Name     string `json:"name"`
	Surnames string `json:"surnames"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

type Budget struct {
	TotalExpenses float64 `json:"totalExpenses"`
	TotalIncome   float64 `json:"totalIncome"`
	Balance       float64 `json:"balance"`
}

// Creator is the submitter snapshot taken at submission time.
type Creator struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Draft is everything a creator fills in before submission.
type Draft struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Place             string            `json:"place"`
	ScheduledDate     string            `json:"scheduledDate"`
	ScheduledTime     string            `json:"scheduledTime"`
	ResponsiblePerson string            `json:"responsiblePerson"`
	ExpectedAttendees int               `json:"expectedAttendees"`
	ImageURL          string            `json:"imageUrl,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	Classification    Classification    `json:"classification"`
	EventTypes        []string          `json:"eventTypes"`
	Objectives        []Objective       `json:"objectives,omitempty"`
	InstitutionalPlan []string          `json:"institutionalPlan,omitempty"`
	TargetSegments    []TargetSegment   `json:"targetSegments,omitempty"`
	ExpectedResults   ExpectedResults   `json:"expectedResults"`
	Resources         []Resource        `json:"resources,omitempty"`
	Committee         []CommitteeMember `json:"committee,omitempty"`
	Budget            Budget            `json:"budget"`
}

// EventProposal is the canonical proposal shape used everywhere past the API
// boundary.
type EventProposal struct {
	ID int64 `json:"id"`
	Draft
	Status  Status  `json:"status"`
	Phase   Phase   `json:"phase"`
	Creator Creator `json:"creator"`
}

var (
	ErrInvalidDraft    = errors.New("invalid event draft")
	ErrInvalidProposal = errors.New("invalid event proposal")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Validate checks submission inputs. It reports every problem at once.
func (d *Draft) Validate() error {
	var problems []string

	if strings.TrimSpace(d.Name) == "" {
		problems = append(problems, "name is required")
	}
	if d.ScheduledDate != "" {
		if _, err := time.Parse(dateLayout, d.ScheduledDate); err != nil {
			problems = append(problems, "scheduled date must be YYYY-MM-DD")
		}
	}
	if d.ScheduledTime != "" {
		if _, err := time.Parse(timeLayout, d.ScheduledTime); err != nil {
			problems = append(problems, "scheduled time must be HH:MM")
		}
	}
	if d.ExpectedAttendees < 0 {
		problems = append(problems, "expected attendees cannot be negative")
	}
	if len(d.EventTypes) == 0 {
		problems = append(problems, "at least one event type is required")
	}
	for _, r := range d.Resources {
		switch r.ResourceType {
		case ResourceTechnological, ResourceFurniture, ResourceTableware:
		default:
			problems = append(problems, fmt.Sprintf("unknown resource type %q", r.ResourceType))
		}
		if r.Quantity < 0 {
			problems = append(problems, fmt.Sprintf("resource %q has negative quantity", r.Name))
		}
	}
	if !d.Budget.balanced() {
		problems = append(problems, "budget balance must equal income minus expenses")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(problems, "; "))
	}
	return nil
}

func (b Budget) balanced() bool {
	diff := b.TotalIncome - b.TotalExpenses - b.Balance
	return diff < 0.005 && diff > -0.005
}

// NormalizeTags trims, drops empties and de-duplicates tags, sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Validate enforces the status/phase invariants of a stored proposal.
func (e *EventProposal) Validate() error {
	switch e.Status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProposal, e.Status)
	}
	if !e.Phase.Valid() {
		return fmt.Errorf("%w: phase %d out of range", ErrInvalidProposal, e.Phase)
	}
	if e.Phase > PhasePlanning && e.Status != StatusApproved {
		return fmt.Errorf("%w: phase %d requires approved status, got %s", ErrInvalidProposal, e.Phase, e.Status)
	}
	return nil
}

// Terminal reports whether no further transition is possible.
func (e *EventProposal) Terminal() bool {
	return e.Status == StatusRejected || (e.Status == StatusApproved && e.Phase == PhaseClosure)
}

// PhaseReport is what a reviewer records when moving an approved proposal
// into its next phase. Only the fields of the target phase are sent.
type PhaseReport struct {
	// scheduling
	ConfirmedDate  string `json:"confirmedDate,omitempty"`
	ConfirmedTime  string `json:"confirmedTime,omitempty"`
	ConfirmedPlace string `json:"confirmedPlace,omitempty"`
	// execution
	ActualAttendees int    `json:"actualAttendees,omitempty"`
	ExecutionNotes  string `json:"executionNotes,omitempty"`
	// closure
	ActualSatisfaction string `json:"actualSatisfaction,omitempty"`
	OtherResults       string `json:"otherResults,omitempty"`
}

// For keeps only the fields that belong to phase p.
func (r PhaseReport) For(p Phase) PhaseReport {
	switch p {
	case PhaseScheduling:
		return PhaseReport{ConfirmedDate: r.ConfirmedDate, ConfirmedTime: r.ConfirmedTime, ConfirmedPlace: r.ConfirmedPlace}
	case PhaseExecution:
		return PhaseReport{ActualAttendees: r.ActualAttendees, ExecutionNotes: r.ExecutionNotes}
	case PhaseClosure:
		return PhaseReport{ActualSatisfaction: r.ActualSatisfaction, OtherResults: r.OtherResults}
	}
	return PhaseReport{}
}
