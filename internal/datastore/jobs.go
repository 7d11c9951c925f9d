package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the vetting job lifecycle state.
type JobStatus string

const (
	JobPending     JobStatus = "pending"
	JobPass        JobStatus = "pass"
	JobFail        JobStatus = "fail"
	JobQuarantined JobStatus = "quarantined"
)

// Job is the subset of a vetting_jobs row the admission read API and the
// worker pipeline both need.
type Job struct {
	ID          uuid.UUID
	VersionID   uuid.UUID
	Status      JobStatus
	Message     string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// JobPipelineInput is the job-plus-version-plus-package join the worker
// loads once per job, mirroring the single query in the pipeline's Rust
// original.
type JobPipelineInput struct {
	JobID       uuid.UUID
	VersionID   uuid.UUID
	SHA256      string
	StoragePath string
	PackageName string
	Version     string
}

// GetJob fetches a job by id for the read API.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	var j Job
	var message sql.NullString
	err := db.sql.QueryRowContext(ctx, `
		SELECT id, version_id, status, results->>'message', created_at, completed_at
		FROM vetting_jobs WHERE id = $1
	`, id).Scan(&j.ID, &j.VersionID, &j.Status, &message, &j.CreatedAt, &j.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("datastore: fetching job %s: %w", id, err)
	}
	j.Message = message.String
	return j, nil
}

// LoadPipelineInput loads everything run_pipeline needs for job id, the
// join over vetting_jobs/versions/packages.
func (db *DB) LoadPipelineInput(ctx context.Context, jobID uuid.UUID) (JobPipelineInput, error) {
	var in JobPipelineInput
	in.JobID = jobID
	err := db.sql.QueryRowContext(ctx, `
		SELECT v.id, v.sha256, v.storage_path, p.name, v.version
		FROM vetting_jobs j
		JOIN versions v ON v.id = j.version_id
		JOIN packages p ON p.id = v.package_id
		WHERE j.id = $1
	`, jobID).Scan(&in.VersionID, &in.SHA256, &in.StoragePath, &in.PackageName, &in.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return JobPipelineInput{}, ErrNotFound
	}
	if err != nil {
		return JobPipelineInput{}, fmt.Errorf("datastore: loading pipeline input for job %s: %w", jobID, err)
	}
	return in, nil
}

// JobStatusOf returns just the current status, used by the runner's
// idempotence check after acquiring the advisory lock.
func (db *DB) JobStatusOf(ctx context.Context, jobID uuid.UUID) (JobStatus, error) {
	var status JobStatus
	err := db.sql.QueryRowContext(ctx, `SELECT status FROM vetting_jobs WHERE id = $1`, jobID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("datastore: fetching job status %s: %w", jobID, err)
	}
	return status, nil
}

// SetVersionSigPath writes the signature object key produced by Stage 4.
func (db *DB) SetVersionSigPath(ctx context.Context, versionID uuid.UUID, sigPath string) error {
	_, err := db.sql.ExecContext(ctx, `UPDATE versions SET sig_path = $1 WHERE id = $2`, sigPath, versionID)
	if err != nil {
		return fmt.Errorf("datastore: setting sig_path for version %s: %w", versionID, err)
	}
	return nil
}

// CompleteJob writes the job's single terminal-state transition: status,
// results message, and completed_at in one statement so concurrent
// pollers observe a consistent view.
func (db *DB) CompleteJob(ctx context.Context, jobID uuid.UUID, status JobStatus, message string) error {
	_, err := db.sql.ExecContext(ctx, `
		UPDATE vetting_jobs
		SET status = $1, completed_at = now(), results = jsonb_build_object('message', $2::text)
		WHERE id = $3
	`, status, message, jobID)
	if err != nil {
		return fmt.Errorf("datastore: completing job %s: %w", jobID, err)
	}
	return nil
}

// ExistingPackageNames returns every package name registry-wide, fed into
// Stage 3's squatting check.
func (db *DB) ExistingPackageNames(ctx context.Context) ([]string, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT name FROM packages`)
	if err != nil {
		return nil, fmt.Errorf("datastore: listing package names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("datastore: scanning package name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// YankedNameVersion is a previously yanked (name, version) pair.
type YankedNameVersion struct {
	Name    string
	Version string
}

// YankedVersions returns every (package name, version) pair that has been
// yanked, fed into Stage 3's re-upload check.
func (db *DB) YankedVersions(ctx context.Context) ([]YankedNameVersion, error) {
	rows, err := db.sql.QueryContext(ctx, `
		SELECT p.name, v.version FROM versions v
		JOIN packages p ON p.id = v.package_id
		WHERE v.yanked_at IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("datastore: listing yanked versions: %w", err)
	}
	defer rows.Close()

	var out []YankedNameVersion
	for rows.Next() {
		var yv YankedNameVersion
		if err := rows.Scan(&yv.Name, &yv.Version); err != nil {
			return nil, fmt.Errorf("datastore: scanning yanked version: %w", err)
		}
		out = append(out, yv)
	}
	return out, rows.Err()
}

// PendingJobsOlderThan returns pending job ids created before the grace
// threshold, used by worker startup recovery.
func (db *DB) PendingJobsOlderThan(ctx context.Context, threshold time.Duration) ([]uuid.UUID, error) {
	rows, err := db.sql.QueryContext(ctx, `
		SELECT id FROM vetting_jobs WHERE status = 'pending' AND created_at < now() - $1::interval
	`, fmt.Sprintf("%d seconds", int(threshold.Seconds())))
	if err != nil {
		return nil, fmt.Errorf("datastore: listing stale pending jobs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("datastore: scanning stale job id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Notify emits a pg_notify on the vetting_jobs channel with jobID as
// payload, used both by startup recovery (self-notification) and
// anywhere else a job needs re-dispatch outside the publish transaction.
func (db *DB) Notify(ctx context.Context, jobID uuid.UUID) error {
	_, err := db.sql.ExecContext(ctx, `SELECT pg_notify('vetting_jobs', $1)`, jobID.String())
	if err != nil {
		return fmt.Errorf("datastore: notifying vetting_jobs for %s: %w", jobID, err)
	}
	return nil
}
