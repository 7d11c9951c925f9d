package datastore

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// advisoryLockKey derives the 64-bit advisory lock key from a job id: the
// first 8 bytes of the UUID interpreted as a signed integer, matching the
// worker's lock derivation. Collision-free over practical job counts, not
// against adversarial input (see design notes on the open question).
func advisoryLockKey(jobID uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(jobID[:8]))
}

// TryAdvisoryLock attempts to acquire the mutually-exclusive lock for
// jobID. false means another worker already holds it.
func (db *DB) TryAdvisoryLock(ctx context.Context, jobID uuid.UUID) (bool, error) {
	var locked bool
	err := db.sql.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, advisoryLockKey(jobID)).Scan(&locked)
	if err != nil {
		return false, fmt.Errorf("datastore: acquiring advisory lock for job %s: %w", jobID, err)
	}
	return locked, nil
}

// AdvisoryUnlock releases the lock for jobID. Called unconditionally once
// a claimed job finishes, pass or fail.
func (db *DB) AdvisoryUnlock(ctx context.Context, jobID uuid.UUID) error {
	_, err := db.sql.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, advisoryLockKey(jobID))
	if err != nil {
		return fmt.Errorf("datastore: releasing advisory lock for job %s: %w", jobID, err)
	}
	return nil
}
