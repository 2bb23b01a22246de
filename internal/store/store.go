package store

import (
	"context"
	"time"

	"github.com/nhle/claims-portal/internal/model"
)

// NotificationFilter controls filtering and pagination for notification
// queries. Results are always newest first.
type NotificationFilter struct {
	UnreadOnly bool
	Type       *model.NotificationType
	ClaimID    *string
	Limit      int
	Offset     int
}

// NotificationStore defines the persistence interface for notifications.
// Entries are append-only: the read flag is the only field ever updated.
type NotificationStore interface {
	AddNotification(ctx context.Context, draft model.NotificationDraft) (model.Notification, error)
	GetNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error)
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	HasUnread(ctx context.Context) (bool, error)

	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error

	RemoveNotification(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
	EvictOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
