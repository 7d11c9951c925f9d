package datastore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repository lookups that find no row.
var ErrNotFound = errors.New("datastore: not found")

// ResolvedKey is the namespace identity an api key resolves to.
type ResolvedKey struct {
	NamespaceID uuid.UUID
	Slug        string
}

// HashToken returns the hex SHA-256 of a plaintext bearer token. Only the
// hash is ever persisted, per the authentication contract.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ResolveAPIKey looks up the namespace owning token and stamps
// last_used_at, mirroring the admission protocol's step (1).
func (db *DB) ResolveAPIKey(ctx context.Context, token string) (ResolvedKey, error) {
	hash := HashToken(token)

	var key ResolvedKey
	err := db.sql.QueryRowContext(ctx, `
		UPDATE api_keys SET last_used_at = now()
		FROM namespaces
		WHERE api_keys.token_hash = $1
		  AND api_keys.namespace_id = namespaces.id
		  AND api_keys.revoked_at IS NULL
		RETURNING namespaces.id, namespaces.slug
	`, hash).Scan(&key.NamespaceID, &key.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return ResolvedKey{}, ErrNotFound
	}
	if err != nil {
		return ResolvedKey{}, fmt.Errorf("datastore: resolving api key: %w", err)
	}
	return key, nil
}
