// Package checks provides ready-made health.Checker implementations for the
// registry's own dependencies, the way the teacher's health/checks package
// ships generic file/HTTP/TCP checkers alongside its health package.
package checks

import (
	"context"
	"fmt"

	"github.com/skillreg/registry/internal/health"
	"github.com/skillreg/registry/internal/objectstore"
)

// Pinger is satisfied by the *sql.DB that datastore.DB.SQL() returns, kept as a
// narrow interface so this package doesn't need to import database/sql
// driver internals.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseChecker reports unhealthy when db can't be pinged.
func DatabaseChecker(db Pinger) health.Checker {
	return health.CheckFunc(func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		return nil
	})
}

// ObjectStoreChecker reports unhealthy when a round-trip write/read/delete
// against a well-known probe key fails.
func ObjectStoreChecker(store objectstore.Store, probeKey string) health.Checker {
	return health.CheckFunc(func(ctx context.Context) error {
		payload := []byte("health-probe")
		if err := store.Put(ctx, probeKey, payload); err != nil {
			return fmt.Errorf("object store: put: %w", err)
		}
		if _, err := store.Get(ctx, probeKey); err != nil {
			return fmt.Errorf("object store: get: %w", err)
		}
		if err := store.Delete(ctx, probeKey); err != nil {
			return fmt.Errorf("object store: delete: %w", err)
		}
		return nil
	})
}
