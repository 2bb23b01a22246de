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

CREATE TABLE IF NOT EXISTS notifications (
	id        TEXT PRIMARY KEY,
	type      TEXT NOT NULL DEFAULT 'info',
	title     TEXT NOT NULL DEFAULT '',
	message   TEXT NOT NULL,
	claim_id  TEXT NOT NULL DEFAULT '',
	read      INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	timestamp DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_timestamp ON notifications(timestamp);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_notifications_claim_id
	ON notifications(claim_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
