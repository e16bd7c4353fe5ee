package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
)

type NotificationService interface {
	List(ctx context.Context) ([]models.Notification, error)
}

type notificationService struct {
	api client.API
}

func NewNotificationService(api client.API) NotificationService {
	return &notificationService{api: api}
}

// List returns the inbox newest first.
func (n *notificationService) List(ctx context.Context) ([]models.Notification, error) {
	items, err := n.api.ListNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}
