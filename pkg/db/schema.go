package db

const (
	// SchemaV1 creates the historydb tables.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS quokka_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS submissions (
    id UUID PRIMARY KEY,
    diary_id TEXT NOT NULL DEFAULT '',
    name VARCHAR(256) NOT NULL DEFAULT '',
    companion CHAR(1) NOT NULL CHECK (companion IN ('F', 'T')),
    content TEXT NOT NULL,
    compliment TEXT NOT NULL DEFAULT '',
    quality_level TEXT NOT NULL DEFAULT '',
    quality_message TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    audio_url TEXT NOT NULL DEFAULT '',
    deleted BOOLEAN DEFAULT FALSE,
    created_at REAL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS submissions_created_at ON submissions (created_at);

CREATE TABLE IF NOT EXISTS submission_errors (
    submission_id UUID NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    message TEXT NOT NULL,
    PRIMARY KEY (submission_id, position)
);
`
)
