package cache

// lookupsSchema stores one JSON payload per (source, key). expires_at is a
// unix timestamp so each entry carries its own TTL.
const lookupsSchema = `
CREATE TABLE IF NOT EXISTS lookups (
	source TEXT NOT NULL,
	cache_key TEXT NOT NULL,
	data TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (source, cache_key)
);

CREATE INDEX IF NOT EXISTS idx_lookups_expires_at ON lookups(expires_at);
`
