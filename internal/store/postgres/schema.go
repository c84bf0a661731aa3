package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id              BIGSERIAL PRIMARY KEY,
		code            VARCHAR(8) NOT NULL,
		target_url      TEXT NOT NULL,
		total_clicks    BIGINT NOT NULL DEFAULT 0 CHECK (total_clicks >= 0),
		last_clicked_at TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS links_code_key ON links (code)`,
	`CREATE INDEX IF NOT EXISTS links_created_at_idx ON links (created_at DESC)`,
}
