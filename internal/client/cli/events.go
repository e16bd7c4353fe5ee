package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/screens"
	"github.com/dmitrijs2005/eventdesk/internal/client/services"
	"github.com/dmitrijs2005/eventdesk/internal/client/workflow"
)

// Pending shows the pending list with the actions of each row.
func (a *App) Pending(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) error {
		return a.showList(ctx, a.pendingList)
	})
}

// Approved shows approved proposals and their phases.
func (a *App) Approved(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) error {
		return a.showList(ctx, a.approvedList)
	})
}

func (a *App) showList(ctx context.Context, s *screens.ListScreen) error {
	if err := s.Focus(ctx); err != nil {
		return err
	}
	items := s.Items()
	if len(items) == 0 {
		fmt.Fprintf(a.out, "No %s events.\n", s.Filter())
		return nil
	}
	printList(a.out, items, func(id int64) []workflow.Action { return s.Actions(ctx, id) })
	return nil
}

// Show prints one proposal in full.
func (a *App) Show(ctx context.Context, id int64) error {
	return a.do(ctx, func(ctx context.Context) error {
		d := screens.NewDetailScreen(id, a.eventService, a.authService)
		defer d.Blur()
		if err := d.Focus(ctx); err != nil {
			return err
		}
		p, _ := d.Proposal()
		printProposal(a.out, p, d.Actions(ctx))
		return nil
	})
}

// Approve approves a pending proposal. The pending list drops the row once
// the server confirmed.
func (a *App) Approve(ctx context.Context, id int64) error {
	return a.do(ctx, func(ctx context.Context) error {
		p, err := a.pendingList.Approve(ctx, id)
		if errors.Is(err, screens.ErrUnknownEvent) {
			p, err = a.viaDetail(ctx, id, func(d *screens.DetailScreen) (models.EventProposal, error) {
				return d.Approve(ctx)
			})
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Event #%d approved. It now shows under 'approved'.\n", p.ID)
		return nil
	})
}

// Reject asks for confirmation before anything is sent.
func (a *App) Reject(ctx context.Context, id int64) error {
	ok, err := Confirm(a.reader, fmt.Sprintf("Reject event #%d? This cannot be undone.", id), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	return a.do(ctx, func(ctx context.Context) error {
		p, err := a.pendingList.Reject(ctx, id, true)
		if errors.Is(err, screens.ErrUnknownEvent) {
			p, err = a.viaDetail(ctx, id, func(d *screens.DetailScreen) (models.EventProposal, error) {
				return d.Reject(ctx, true)
			})
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Event #%d rejected.\n", p.ID)
		return nil
	})
}

// Advance moves an approved proposal into its next phase after collecting
// the data that phase needs. The workflow is checked before prompting.
func (a *App) Advance(ctx context.Context, id int64) error {
	var (
		current models.EventProposal
		found   bool
	)
	for _, p := range a.approvedList.Items() {
		if p.ID == id {
			current, found = p, true
		}
	}
	if !found {
		d := screens.NewDetailScreen(id, a.eventService, a.authService)
		if err := d.Focus(ctx); err != nil {
			a.report(ctx, err, nil)
			return err
		}
		current, _ = d.Proposal()
		d.Blur()
	}

	cred := a.authService.Current(ctx)
	if cred == nil {
		a.report(ctx, services.ErrNotSignedIn, nil)
		return services.ErrNotSignedIn
	}
	if err := workflow.Check(cred.User.Role, workflow.ActionAdvancePhase, current); err != nil {
		a.report(ctx, err, nil)
		return err
	}
	next, _ := workflow.NextPhase(current)

	report, err := a.readPhaseReport(next)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	return a.do(ctx, func(ctx context.Context) error {
		p, err := a.approvedList.Advance(ctx, id, report)
		if errors.Is(err, screens.ErrUnknownEvent) {
			p, err = a.viaDetail(ctx, id, func(d *screens.DetailScreen) (models.EventProposal, error) {
				return d.Advance(ctx, report)
			})
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Event #%d is now in phase %d (%s).\n", p.ID, p.Phase, p.Phase)
		return nil
	})
}

func (a *App) readPhaseReport(next models.Phase) (models.PhaseReport, error) {
	var (
		r   models.PhaseReport
		err error
	)
	fmt.Fprintf(a.out, "Moving to phase %d (%s).\n", next, next)

	switch next {
	case models.PhaseScheduling:
		if r.ConfirmedDate, err = getSimpleText(a.reader, "Confirmed date (YYYY-MM-DD, empty keeps current)", a.out); err != nil {
			return r, err
		}
		if r.ConfirmedTime, err = getSimpleText(a.reader, "Confirmed time (HH:MM, empty keeps current)", a.out); err != nil {
			return r, err
		}
		if r.ConfirmedPlace, err = getSimpleText(a.reader, "Confirmed place (empty keeps current)", a.out); err != nil {
			return r, err
		}
	case models.PhaseExecution:
		if r.ActualAttendees, err = GetInt(a.reader, "Actual attendees", 0, a.out); err != nil {
			return r, err
		}
		if r.ExecutionNotes, err = GetMultiline(a.reader, "Execution notes", a.out); err != nil {
			return r, err
		}
	case models.PhaseClosure:
		if r.ActualSatisfaction, err = getSimpleText(a.reader, "Actual satisfaction", a.out); err != nil {
			return r, err
		}
		if r.OtherResults, err = GetMultiline(a.reader, "Other results", a.out); err != nil {
			return r, err
		}
	}
	return r, nil
}

// viaDetail runs action on a freshly loaded detail screen, for ids not on
// the list screen.
func (a *App) viaDetail(ctx context.Context, id int64, action func(*screens.DetailScreen) (models.EventProposal, error)) (models.EventProposal, error) {
	d := screens.NewDetailScreen(id, a.eventService, a.authService)
	defer d.Blur()
	if err := d.Focus(ctx); err != nil {
		return models.EventProposal{}, err
	}
	return action(d)
}

// Submit collects a draft and submits it, optionally with an image.
func (a *App) Submit(ctx context.Context) error {
	draft, imagePath, err := a.readDraft()
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	var created models.EventProposal
	err = a.do(ctx, func(ctx context.Context) error {
		created, err = a.form.Submit(ctx, draft)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Event #%d submitted, status %s, phase %d.\n", created.ID, created.Status, created.Phase)

	if imagePath != "" {
		return a.Upload(ctx, created.ID, imagePath)
	}
	return nil
}

func (a *App) readDraft() (models.Draft, string, error) {
	var (
		d   models.Draft
		err error
	)
	ask := func(dst *string, prompt string) {
		if err == nil {
			*dst, err = getSimpleText(a.reader, prompt, a.out)
		}
	}

	ask(&d.Name, "Event name")
	if err == nil {
		d.Description, err = GetMultiline(a.reader, "Description", a.out)
	}
	ask(&d.Place, "Place")
	ask(&d.ScheduledDate, "Date (YYYY-MM-DD)")
	ask(&d.ScheduledTime, "Time (HH:MM)")
	ask(&d.ResponsiblePerson, "Responsible person")
	if err == nil {
		d.ExpectedAttendees, err = GetInt(a.reader, "Expected attendees", 0, a.out)
	}
	if err == nil {
		d.EventTypes, err = GetList(a.reader, "Event types", a.out)
	}
	if err == nil {
		d.Tags, err = GetList(a.reader, "Tags", a.out)
	}
	ask(&d.Classification.Strategic, "Strategic classification")
	ask(&d.Classification.Subcategory, "Subcategory")
	if err == nil {
		var lines []string
		lines, err = GetLines(a.reader, "Resources as type,name,quantity (type: technological, furniture, tableware)", a.out)
		if err == nil {
			d.Resources, err = parseResources(lines)
		}
	}
	if err == nil {
		d.Budget.TotalIncome, err = GetFloat(a.reader, "Total income", a.out)
	}
	if err == nil {
		d.Budget.TotalExpenses, err = GetFloat(a.reader, "Total expenses", a.out)
	}
	d.Budget.Balance = d.Budget.TotalIncome - d.Budget.TotalExpenses

	var image string
	ask(&image, "Image file (empty for none)")
	if err != nil {
		return models.Draft{}, "", err
	}
	return d, image, nil
}

// Upload attaches the file at path as the image of event id.
func (a *App) Upload(ctx context.Context, id int64, path string) error {
	return a.do(ctx, func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		d := screens.NewDetailScreen(id, a.eventService, a.authService)
		url, err := d.UploadImage(ctx, filepath.Base(path), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Image uploaded: %s\n", url)
		return nil
	})
}

func (a *App) Notifications(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) error {
		items, err := a.notificationService.List(ctx)
		if err != nil {
			return err
		}
		printNotifications(a.out, items)
		return nil
	})
}

// Dashboard fetches pending, approved and notifications at once.
func (a *App) Dashboard(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) error {
		d, err := services.LoadDashboard(ctx, a.eventService, a.notificationService)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "pending: %d  approved: %d  notifications: %d (%d unread)\n",
			len(d.Pending), len(d.Approved), len(d.Notifications), d.Unread())
		return nil
	})
}
