// Package admission implements the publish admission path: the HTTP
// endpoint that authenticates a publisher, validates an uploaded
// artifact, stores it, and enqueues a vetting job, plus the read API the
// installer and job poller consume.
package admission

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/skillreg/registry/internal/cache"
	"github.com/skillreg/registry/internal/datastore"
	"github.com/skillreg/registry/internal/dcontext"
	"github.com/skillreg/registry/internal/objectstore"
	"github.com/skillreg/registry/internal/requestutil"
	"github.com/skillreg/registry/internal/uuid"
	"github.com/skillreg/registry/internal/version"
)

// MaxArtifactBytes bounds the publish request body, matching Stage 1's
// own limit since an oversized tarball will fail vetting regardless.
const MaxArtifactBytes = 5 * 1024 * 1024

// App is the admission service's shared state, analogous to the
// teacher's handlers.App: one instance per process, referenced by every
// request handler.
type App struct {
	Config     Config
	InstanceID string
	Version    string

	DB     *datastore.DB
	Store  objectstore.Store
	Cache  *cache.ManifestCache // nil disables caching
	router *mux.Router
}

// Config is the admission service's own configuration surface, layered
// on top of the shared configuration package.
type Config struct {
	Bucket string
}

// NewApp constructs an App and registers all core routes.
func NewApp(cfg Config, db *datastore.DB, store objectstore.Store) *App {
	app := &App{
		Config:     cfg,
		InstanceID: uuid.NewString(),
		Version:    version.Version(),
		DB:         db,
		Store:      store,
		router:     mux.NewRouter(),
	}

	app.router.HandleFunc("/v1/publish", app.handlePublish).Methods(http.MethodPost)
	app.router.HandleFunc("/v1/jobs/{id}", app.handleGetJob).Methods(http.MethodGet)
	app.router.HandleFunc("/v1/packages/{ns}/{name}/{version}", app.handleGetPackage).Methods(http.MethodGet)
	app.router.HandleFunc("/v1/download/{ns}/{name}/{version}", app.handleDownloadArtifact).Methods(http.MethodGet)
	app.router.HandleFunc("/v1/download/{ns}/{name}/{version}/sig", app.handleDownloadSignature).Methods(http.MethodGet)
	app.router.HandleFunc("/v1/yank/{ns}/{name}/{version}", app.handleYank).Methods(http.MethodPost)

	return app
}

// ServeHTTP implements http.Handler, stamping a per-request logger with a
// request id and the caller's remote address (proxy-aware, per
// requestutil), the way the teacher's app context-scopes each request. It
// also stamps the App-Version response header and traces the request's
// elapsed time, the way the teacher wraps blocking I/O operations with
// dcontext.WithTrace.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("App-Version", app.Version)

	ctx := dcontext.WithVersion(r.Context(), app.Version)
	logger := dcontext.GetLoggerWithFields(ctx, map[any]any{
		"http.request.id":         uuid.NewString(),
		"http.request.method":     r.Method,
		"http.request.uri":        r.RequestURI,
		"http.request.remoteaddr": requestutil.RemoteAddr(r),
	})
	ctx = dcontext.WithLogger(ctx, logger)

	ctx, done := dcontext.WithTrace(ctx)
	defer done("handled %s %s", r.Method, r.RequestURI)

	app.router.ServeHTTP(w, r.WithContext(ctx))
}
