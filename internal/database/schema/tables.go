// Package schema defines the database schema.
package schema

// TableDefinitions contains the statements that create the tables and indexes.
// They are idempotent and run at every start.
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL DEFAULT 'staff',
		password_hash VARCHAR(255) NOT NULL,
		last_login TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		blocks JSONB NOT NULL DEFAULT '[]',
		slug VARCHAR(64),
		og_image TEXT,
		og_description TEXT,
		thumbnail_url TEXT,
		view_count BIGINT NOT NULL DEFAULT 0,
		version BIGINT NOT NULL DEFAULT 1,
		schema_version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS campaigns_slug_idx ON campaigns (slug) WHERE slug IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS campaigns_created_at_idx ON campaigns (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key VARCHAR(255) PRIMARY KEY,
		value TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}
