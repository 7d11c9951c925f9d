package datastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrVersionExists is returned when the (package, version) pair is already
// present — the admission protocol's version-uniqueness probe.
var ErrVersionExists = errors.New("datastore: version already exists")

// PublishParams carries everything the admission transaction needs to
// upsert a package, insert its version, and enqueue a vetting job.
type PublishParams struct {
	NamespaceID  uuid.UUID
	PackageName  string
	Description  string
	Category     *string
	Version      string
	SHA256       string
	StoragePath  string
	CertChainPEM []string
}

// PublishResult is what the caller needs to respond to the publish
// request and to notify the worker pool.
type PublishResult struct {
	VersionID uuid.UUID
	JobID     uuid.UUID
}

// VersionExists reports whether (namespace, name, version) has already
// been published, the admission protocol's step (5).
func (db *DB) VersionExists(ctx context.Context, namespaceID uuid.UUID, name, version string) (bool, error) {
	var exists bool
	err := db.sql.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM versions v
			JOIN packages p ON p.id = v.package_id
			WHERE p.namespace_id = $1 AND p.name = $2 AND v.version = $3
		)
	`, namespaceID, name, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("datastore: checking version existence: %w", err)
	}
	return exists, nil
}

// Publish performs admission protocol steps (7)-(8): in one transaction,
// upsert the package row, insert the version row (empty sig_path, signer
// registry), insert a pending vetting job, and notify the vetting_jobs
// channel with the job id. The object-storage upload must already have
// completed — per the ordering note, this is called only after bytes are
// durably stored, so a crash here at worst leaves an orphan blob.
func (db *DB) Publish(ctx context.Context, p PublishParams) (PublishResult, error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return PublishResult{}, fmt.Errorf("datastore: beginning publish transaction: %w", err)
	}
	defer tx.Rollback()

	var packageID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO packages (namespace_id, name, description, category)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace_id, name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id
	`, p.NamespaceID, p.PackageName, p.Description, p.Category).Scan(&packageID)
	if err != nil {
		return PublishResult{}, fmt.Errorf("datastore: upserting package: %w", err)
	}

	var versionID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO versions (package_id, version, sha256, storage_path, sig_path, signer_kind, cert_chain_pem)
		VALUES ($1, $2, $3, $4, '', 'registry', $5)
		RETURNING id
	`, packageID, p.Version, p.SHA256, p.StoragePath, pq.Array(p.CertChainPEM)).Scan(&versionID)
	if err != nil {
		if isUniqueViolation(err) {
			return PublishResult{}, ErrVersionExists
		}
		return PublishResult{}, fmt.Errorf("datastore: inserting version: %w", err)
	}

	var jobID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO vetting_jobs (version_id, status) VALUES ($1, 'pending')
		RETURNING id
	`, versionID).Scan(&jobID)
	if err != nil {
		return PublishResult{}, fmt.Errorf("datastore: inserting vetting job: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_notify('vetting_jobs', $1)`, jobID.String()); err != nil {
		return PublishResult{}, fmt.Errorf("datastore: notifying vetting_jobs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return PublishResult{}, fmt.Errorf("datastore: committing publish transaction: %w", err)
	}

	return PublishResult{VersionID: versionID, JobID: jobID}, nil
}

// YankVersion marks (namespace, name, version) as yanked, the one-way
// administrative action spec'd in the version's lifecycle: the read API
// keeps serving metadata (so existing installs can still verify) but the
// safety stage treats the (name, version) pair as permanently burned
// against re-upload. Scoped to namespaceID so a caller can only yank
// their own namespace's packages.
func (db *DB) YankVersion(ctx context.Context, namespaceID uuid.UUID, name, version string) error {
	res, err := db.sql.ExecContext(ctx, `
		UPDATE versions v
		SET yanked_at = now()
		FROM packages p
		WHERE v.package_id = p.id
		  AND p.namespace_id = $1 AND p.name = $2 AND v.version = $3
		  AND v.yanked_at IS NULL
	`, namespaceID, name, version)
	if err != nil {
		return fmt.Errorf("datastore: yanking %s@%s: %w", name, version, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("datastore: checking yank result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
