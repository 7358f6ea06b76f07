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

CREATE TABLE IF NOT EXISTS emails (
	id              TEXT PRIMARY KEY,
	mailbox_id      TEXT NOT NULL,
	from_email      TEXT NOT NULL DEFAULT '',
	from_name       TEXT NOT NULL DEFAULT '',
	subject         TEXT NOT NULL DEFAULT '',
	snippet         TEXT NOT NULL DEFAULT '',
	ai_summary      TEXT NOT NULL DEFAULT '',
	body            TEXT NOT NULL DEFAULT '',
	received_at     DATETIME NOT NULL,
	is_read         INTEGER NOT NULL DEFAULT 0,
	is_starred      INTEGER NOT NULL DEFAULT 0,
	has_attachments INTEGER NOT NULL DEFAULT 0,
	category        TEXT NOT NULL DEFAULT 'primary',
	task_status     TEXT NOT NULL DEFAULT 'none',
	is_snoozed      INTEGER NOT NULL DEFAULT 0,
	snoozed_until   DATETIME,
	labels          TEXT NOT NULL DEFAULT '[]',
	fetched_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS columns (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	gmail_label_id TEXT NOT NULL DEFAULT '',
	color          TEXT NOT NULL DEFAULT '',
	order_index    INTEGER NOT NULL DEFAULT 0,
	is_default     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS task_status (
	email_id   TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'none',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_emails_mailbox ON emails(mailbox_id);
CREATE INDEX IF NOT EXISTS idx_emails_received ON emails(received_at);
CREATE INDEX IF NOT EXISTS idx_emails_from ON emails(from_email);
CREATE INDEX IF NOT EXISTS idx_emails_task_status ON emails(task_status);
CREATE INDEX IF NOT EXISTS idx_columns_order ON columns(order_index);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_emails_mailbox_received
	ON emails(mailbox_id, received_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
