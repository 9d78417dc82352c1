package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/clinicdesk/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// LogNotification inserts a shown notification. A missing ID or ShownAt
// is filled in.
func (s *SQLiteStore) LogNotification(
	ctx context.Context,
	entry model.NotificationLogEntry,
) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.ShownAt.IsZero() {
		entry.ShownAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_log (
			id, notification_id, session_id, action, message, read, shown_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.NotificationID, entry.SessionID,
		entry.Action, entry.Message, boolToInt(entry.Read),
		entry.ShownAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("logging notification %d: %w", entry.NotificationID, err)
	}

	return nil
}

// RecentNotifications returns the most recently shown notifications,
// newest first. A non-positive limit defaults to 100.
func (s *SQLiteStore) RecentNotifications(
	ctx context.Context,
	limit int,
) ([]model.NotificationLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var entries []model.NotificationLogEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, notification_id, session_id, action, message, read, shown_at
		FROM notification_log
		ORDER BY shown_at DESC, rowid DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notification log: %w", err)
	}

	return entries, nil
}

// MarkLoggedRead marks every log entry for a notification as read.
func (s *SQLiteStore) MarkLoggedRead(ctx context.Context, notificationID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notification_log SET read = 1 WHERE notification_id = ?", notificationID,
	)
	if err != nil {
		return fmt.Errorf("marking notification %d as read: %w", notificationID, err)
	}
	return nil
}

// SaveLastRoute remembers the section a user last opened.
func (s *SQLiteStore) SaveLastRoute(ctx context.Context, username string, route string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO route_visits (username, route, visited_at)
		VALUES (?, ?, ?)`,
		username, route, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving last route for %s: %w", username, err)
	}
	return nil
}

// LastRoute returns the section a user last opened, or "" if none.
func (s *SQLiteStore) LastRoute(ctx context.Context, username string) (string, error) {
	var route string
	err := s.db.GetContext(ctx, &route,
		"SELECT route FROM route_visits WHERE username = ?", username,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading last route for %s: %w", username, err)
	}
	return route, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
