package store

import (
	"context"

	"github.com/nhle/clinicdesk/internal/model"
)

// Recorder logs shown notifications under one session ID.
type Recorder struct {
	store     Store
	sessionID string
}

// NewRecorder returns a Recorder tagging entries with sessionID.
func NewRecorder(s Store, sessionID string) *Recorder {
	return &Recorder{store: s, sessionID: sessionID}
}

// RecordShown implements notify.Recorder.
func (r *Recorder) RecordShown(ctx context.Context, n model.Notification) error {
	return r.store.LogNotification(ctx, model.NotificationLogEntry{
		NotificationID: n.ID,
		SessionID:      r.sessionID,
		Action:         n.Action,
		Message:        n.Message,
		Read:           n.IsRead,
	})
}
