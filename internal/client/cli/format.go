package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/workflow"
)

const timeFormat = "2006-01-02 15:04"

func actionNames(actions []workflow.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ",")
}

func printList(w io.Writer, items []models.EventProposal, actions func(id int64) []workflow.Action) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDATE\tSTATUS\tPHASE\tCREATOR\tACTIONS")
	for _, p := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Name, p.ScheduledDate, p.ScheduledTime, p.Status, p.Phase, p.Creator.Email, actionNames(actions(p.ID)))
	}
	tw.Flush()
}

func printProposal(w io.Writer, p models.EventProposal, actions []workflow.Action) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(k string, v any) { fmt.Fprintf(tw, "%s:\t%v\n", k, v) }

	row("ID", p.ID)
	row("Name", p.Name)
	row("Status", p.Status)
	row("Phase", fmt.Sprintf("%d (%s)", p.Phase, p.Phase))
	row("When", strings.TrimSpace(p.ScheduledDate+" "+p.ScheduledTime))
	row("Place", p.Place)
	row("Responsible", p.ResponsiblePerson)
	row("Attendees", p.ExpectedAttendees)
	row("Types", strings.Join(p.EventTypes, ", "))
	if len(p.Tags) > 0 {
		row("Tags", strings.Join(p.Tags, ", "))
	}
	if p.Classification.Strategic != "" {
		row("Classification", strings.TrimSuffix(p.Classification.Strategic+" / "+p.Classification.Subcategory, " / "))
	}
	row("Budget", fmt.Sprintf("income %.2f, expenses %.2f, balance %.2f",
		p.Budget.TotalIncome, p.Budget.TotalExpenses, p.Budget.Balance))
	for _, r := range p.Resources {
		row("Resource", fmt.Sprintf("%s x%d (%s)", r.Name, r.Quantity, r.ResourceType))
	}
	if p.ImageURL != "" {
		row("Image", p.ImageURL)
	}
	row("Creator", strings.TrimSpace(fmt.Sprintf("%s <%s>", p.Creator.Name, p.Creator.Email)))
	row("Actions", actionNames(actions))
	tw.Flush()

	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
}

func printNotifications(w io.Writer, items []models.Notification) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, n := range items {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, n.CreatedAt.Local().Format(timeFormat), n.Title, n.Message)
	}
	tw.Flush()
}

func parseResources(lines []string) ([]models.Resource, error) {
	out := make([]models.Resource, 0, len(lines))
	for _, l := range lines {
		parts := strings.Split(l, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("resource %q: want type,name,quantity", l)
		}
		var qty int
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[2]), "%d", &qty); err != nil {
			return nil, fmt.Errorf("resource %q: quantity is not a number", l)
		}
		out = append(out, models.Resource{
			ResourceType: models.ResourceType(strings.ToLower(strings.TrimSpace(parts[0]))),
			Name:         strings.TrimSpace(parts[1]),
			Quantity:     qty,
		})
	}
	return out, nil
}
