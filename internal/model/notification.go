package model

import "time"

// Notification is an alert produced by the clinic API's notifications
// endpoint. Fields not listed here are dropped during decoding.
type Notification struct {
	// ID is the server-assigned identifier, stable across polls.
	ID int64 `json:"id"`

	// IsRead is true once the server has recorded the notification as read.
	IsRead bool `json:"is_read"`

	// Action is a short label for what happened (e.g. "patient_created").
	Action string `json:"action"`

	// Message is the human-readable notification text.
	Message string `json:"message"`
}

// NotificationLogEntry records a notification that was shown as a toast.
type NotificationLogEntry struct {
	ID             string    `db:"id"`
	NotificationID int64     `db:"notification_id"`
	SessionID      string    `db:"session_id"`
	Action         string    `db:"action"`
	Message        string    `db:"message"`
	Read           bool      `db:"read"`
	ShownAt        time.Time `db:"shown_at"`
}
