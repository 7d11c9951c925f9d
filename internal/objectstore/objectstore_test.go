package objectstore

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	key := ArtifactKey("acme", "hello-world", "1.0.0", "deadbeef")
	if key != "acme/hello-world/1.0.0/deadbeef.skill" {
		t.Fatalf("unexpected artifact key: %s", key)
	}
	if sigKey := SignatureKey(key); sigKey != "acme/hello-world/1.0.0/deadbeef.sig" {
		t.Fatalf("unexpected signature key: %s", sigKey)
	}

	if err := s.Put(ctx, key, []byte("tarball")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "tarball" {
		t.Fatalf("unexpected content: %s", got)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing key is not an error.
	if err := s.Delete(ctx, "acme/missing/1.0.0/cafe.skill"); err != nil {
		t.Fatalf("delete of missing key should not error: %v", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	keys := []string{
		ArtifactKey("acme", "hello-world", "1.0.0", "aaaa"),
		SignatureKey(ArtifactKey("acme", "hello-world", "1.0.0", "aaaa")),
		ArtifactKey("acme", "other-pkg", "2.0.0", "bbbb"),
	}
	for _, k := range keys {
		if err := s.Put(ctx, k, []byte("x")); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	got, err := s.List(ctx, "acme/hello-world/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 keys under acme/hello-world/, got %d: %v", len(got), got)
	}
}

func TestGetMissingKeyReturnsErrNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
