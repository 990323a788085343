// ABOUTME: SQLite schema for process documents and chat history
package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	content       TEXT NOT NULL DEFAULT '',
	tags          TEXT NOT NULL DEFAULT '[]',
	tenant_id     TEXT NOT NULL,
	assigned_to   TEXT NOT NULL DEFAULT '[]',
	version       INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL,
	embedding     BLOB,
	is_chunk      INTEGER NOT NULL DEFAULT 0,
	parent_id     TEXT NOT NULL DEFAULT '',
	chunk_index   INTEGER NOT NULL DEFAULT 0,
	chunk_count   INTEGER NOT NULL DEFAULT 0,
	content_type  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_tenant ON documents(tenant_id);
CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(parent_id);
CREATE INDEX IF NOT EXISTS idx_documents_tenant_chunk ON documents(tenant_id, is_chunk);

CREATE TABLE IF NOT EXISTS chat_turns (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	type       TEXT NOT NULL,
	message    TEXT NOT NULL,
	sources    TEXT NOT NULL DEFAULT '[]',
	streaming  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_turns_user ON chat_turns(tenant_id, user_id, created_at);
`
