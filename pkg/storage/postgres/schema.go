package postgres

// schemaStatements is applied in order when DB_AUTO_MIGRATE is set.
// The embedding column is dimensioned for nomic-embed-text and
// text-embedding-3-small alike via untyped vector.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	`CREATE TABLE IF NOT EXISTS settings (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		variant    TEXT NOT NULL,
		base_url   TEXT NOT NULL,
		token      TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id          BIGSERIAL PRIMARY KEY,
		filename    TEXT NOT NULL,
		file_size   BIGINT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		embedded    BOOLEAN NOT NULL DEFAULT FALSE,
		embed_model TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS document_chunks (
		id          BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id),
		chunk_index INTEGER NOT NULL,
		content     TEXT NOT NULL,
		embedding   VECTOR,
		UNIQUE (document_id, chunk_index)
	)`,
}
