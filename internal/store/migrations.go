package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_log (
	id              TEXT PRIMARY KEY,
	notification_id INTEGER NOT NULL,
	session_id      TEXT NOT NULL,
	action          TEXT NOT NULL DEFAULT '',
	message         TEXT NOT NULL DEFAULT '',
	read            INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	shown_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notification_log_shown_at ON notification_log(shown_at);
CREATE INDEX IF NOT EXISTS idx_notification_log_notification_id ON notification_log(notification_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS route_visits (
	username   TEXT PRIMARY KEY,
	route      TEXT NOT NULL,
	visited_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
