// Package objectstore abstracts the blob storage backend that holds .skill
// artifacts and their detached .sig signatures, the way
// registry/storage/driver abstracts blob storage for the teacher registry.
package objectstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when key does not exist.
var ErrNotFound = errors.New("objectstore: key not found")

// Store is the minimal object-storage contract the registry needs: whole-
// object put/get (artifacts are bounded in size and received whole per
// spec's Non-goals — no streaming upload) plus delete and prefix listing
// for garbage collection of orphaned blobs.
type Store interface {
	// Put stores content at key, overwriting any existing object.
	Put(ctx context.Context, key string, content []byte) error

	// Get retrieves the content stored at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object at key. It is not an error to delete a
	// missing key.
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix, used by periodic GC to
	// reclaim orphaned blobs (see spec §4.1 "Ordering note").
	List(ctx context.Context, prefix string) ([]string, error)
}

// ArtifactKey returns the object-storage key for a .skill artifact.
func ArtifactKey(namespace, name, version, sha256 string) string {
	return fmt.Sprintf("%s/%s/%s/%s.skill", namespace, name, version, sha256)
}

// SignatureKey returns the object-storage key for a detached signature,
// derived from an artifact key by replacing its .skill suffix.
func SignatureKey(artifactKey string) string {
	const suffix = ".skill"
	if len(artifactKey) >= len(suffix) && artifactKey[len(artifactKey)-len(suffix):] == suffix {
		return artifactKey[:len(artifactKey)-len(suffix)] + ".sig"
	}
	return artifactKey + ".sig"
}
