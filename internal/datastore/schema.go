package datastore

// schemaStatements creates the core tables if they do not already exist.
// Column shapes follow the entities and invariants table in the data
// model: namespaces own api keys and packages; packages own versions;
// versions own vetting jobs.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS namespaces (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		slug TEXT NOT NULL UNIQUE,
		owner_identity TEXT NOT NULL,
		banned_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		namespace_id UUID NOT NULL REFERENCES namespaces(id),
		token_hash TEXT NOT NULL UNIQUE,
		contact_email TEXT NOT NULL,
		last_used_at TIMESTAMPTZ,
		revoked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS packages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		namespace_id UUID NOT NULL REFERENCES namespaces(id),
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE(namespace_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS versions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		package_id UUID NOT NULL REFERENCES packages(id),
		version TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		storage_path TEXT NOT NULL,
		sig_path TEXT NOT NULL DEFAULT '',
		signer_kind TEXT NOT NULL DEFAULT 'registry',
		signer_cert_serial BIGINT,
		cert_chain_pem TEXT[] NOT NULL DEFAULT '{}',
		yanked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE(package_id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS vetting_jobs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		version_id UUID NOT NULL REFERENCES versions(id),
		status TEXT NOT NULL DEFAULT 'pending',
		results JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS vetting_jobs_status_created_at_idx ON vetting_jobs(status, created_at)`,
}
