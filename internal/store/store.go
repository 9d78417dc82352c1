package store

import (
	"context"

	"github.com/nhle/clinicdesk/internal/model"
)

// Store defines local persistence: the log of notifications shown as
// toasts and the last section each user visited.
type Store interface {
	// === Notification log ===

	LogNotification(ctx context.Context, entry model.NotificationLogEntry) error
	RecentNotifications(ctx context.Context, limit int) ([]model.NotificationLogEntry, error)
	MarkLoggedRead(ctx context.Context, notificationID int64) error

	// === Route visits ===

	SaveLastRoute(ctx context.Context, username string, route string) error
	LastRoute(ctx context.Context, username string) (string, error)
}
