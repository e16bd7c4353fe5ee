package services

import (
	"context"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the start screen summary.
type Dashboard struct {
	Pending       []models.EventProposal
	Approved      []models.EventProposal
	Notifications []models.Notification
}

// Unread counts notifications not yet read.
func (d Dashboard) Unread() int {
	n := 0
	for _, item := range d.Notifications {
		if !item.Read {
			n++
		}
	}
	return n
}

// LoadDashboard fetches the three collections concurrently. The first
// failure cancels the other requests and is returned.
func LoadDashboard(ctx context.Context, events EventService, notifications NotificationService) (Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		d.Pending, err = events.Pending(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Approved, err = events.Approved(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Notifications, err = notifications.List(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
