package sqlite

var pragmas = []string{
	`PRAGMA busy_timeout = 5000`,
	`PRAGMA journal_mode = WAL`,
	`PRAGMA synchronous = NORMAL`,
}

// Timestamps are TEXT in timeLayout, always UTC.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		code            TEXT NOT NULL UNIQUE,
		target_url      TEXT NOT NULL,
		total_clicks    INTEGER NOT NULL DEFAULT 0 CHECK (total_clicks >= 0),
		last_clicked_at TEXT,
		created_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS links_created_at_idx ON links (created_at DESC)`,
}
