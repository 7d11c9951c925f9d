// Package health implements a registry of named health checks and an
// HTTP status handler, the way the teacher's health package backs its own
// /debug/health endpoint: checks register themselves under a name, are run
// on demand for each status or gated request, and the handler reports 503
// when any one of them fails.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/skillreg/registry/internal/errcode"
)

// Checker is the interface for a health check.
type Checker interface {
	// Check returns nil if the service is okay.
	Check(context.Context) error
}

// CheckFunc adapts a plain function to the Checker interface.
type CheckFunc func(context.Context) error

func (cf CheckFunc) Check(ctx context.Context) error {
	return cf(ctx)
}

// Registry is a collection of named checks.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Checker
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Checker)}
}

// Register associates check with name. Registering the same name twice
// panics, matching the teacher's "must be a programming error" stance.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checks[name]; ok {
		panic("health: check already registered: " + name)
	}
	r.checks[name] = check
}

// RegisterFunc is a convenience wrapper around Register for a bare function.
func (r *Registry) RegisterFunc(name string, check CheckFunc) {
	r.Register(name, check)
}

// CheckStatus runs every registered check and returns the names of those
// that failed, mapped to the error each produced.
func (r *Registry) CheckStatus(ctx context.Context) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	failures := make(map[string]string)
	for name, check := range r.checks {
		if err := check.Check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	return failures
}

// StatusHandler serves the registry's current check status as JSON,
// returning 503 the moment any check is failing and 200 otherwise.
func (r *Registry) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.NotFound(w, req)
			return
		}

		failures := r.CheckStatus(req.Context())
		status := http.StatusOK
		if len(failures) != 0 {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(failures)
	}
}

// Gate wraps handler so that any failing check short-circuits the request
// with a DEPENDENCY_UNAVAILABLE error envelope instead of reaching handler.
func (r *Registry) Gate(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if failures := r.CheckStatus(req.Context()); len(failures) != 0 {
			errcode.ServeJSON(w, errcode.ErrDependencyUnavailable.WithDetail(failures))
			return
		}
		handler.ServeHTTP(w, req)
	})
}
