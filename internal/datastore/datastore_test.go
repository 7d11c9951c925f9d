package datastore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func TestHashTokenDeterministic(t *testing.T) {
	h1 := HashToken("skreg_abc123")
	h2 := HashToken("skreg_abc123")
	if h1 != h2 {
		t.Fatalf("expected deterministic hash, got %q and %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h1))
	}
	if HashToken("skreg_other") == h1 {
		t.Fatal("expected different tokens to hash differently")
	}
}

func TestAdvisoryLockKeyUsesFirstEightBytes(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	key := advisoryLockKey(id)

	var want int64
	for _, b := range id[:8] {
		want = want<<8 | int64(b)
	}
	if key != want {
		t.Fatalf("expected %d, got %d", want, key)
	}
}

// testDSN returns the Postgres connection string for integration tests,
// skipping when not configured, matching how the s3-aws driver tests
// skip without AWS credentials.
func testDSN(tb testing.TB) string {
	tb.Helper()
	dsn := os.Getenv("SKREG_TEST_DATABASE_URL")
	if dsn == "" {
		tb.Skip("set SKREG_TEST_DATABASE_URL to run datastore integration tests")
	}
	return dsn
}

func TestPublishAndAdvisoryLockRoundTrip(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var namespaceID uuid.UUID
	err = db.sql.QueryRowContext(ctx, `
		INSERT INTO namespaces (slug, owner_identity) VALUES ($1, 'owner') RETURNING id
	`, "acme-"+uuid.NewString()[:8]).Scan(&namespaceID)
	if err != nil {
		t.Fatalf("inserting namespace: %v", err)
	}

	result, err := db.Publish(ctx, PublishParams{
		NamespaceID: namespaceID,
		PackageName: "deploy-helper",
		Description: "A helpful deployment skill.",
		Version:     "1.0.0",
		SHA256:      "ab00000000000000000000000000000000000000000000000000000000cd",
		StoragePath: "acme/deploy-helper/1.0.0/deadbeef.skill",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	locked, err := db.TryAdvisoryLock(ctx, result.JobID)
	if err != nil {
		t.Fatalf("TryAdvisoryLock: %v", err)
	}
	if !locked {
		t.Fatal("expected to acquire freshly-created job's lock")
	}

	if err := db.AdvisoryUnlock(ctx, result.JobID); err != nil {
		t.Fatalf("AdvisoryUnlock: %v", err)
	}

	status, err := db.JobStatusOf(ctx, result.JobID)
	if err != nil {
		t.Fatalf("JobStatusOf: %v", err)
	}
	if status != JobPending {
		t.Fatalf("expected pending, got %s", status)
	}
}
