package admission

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/skillreg/registry/internal/datastore"
	"github.com/skillreg/registry/internal/errcode"
	"github.com/skillreg/registry/internal/manifest"
	"github.com/skillreg/registry/internal/objectstore"
)

// manifestResponse is the wire shape of GET /v1/packages/{ns}/{name}/{version|latest},
// reconstructed from the versions/packages/namespaces join rather than
// re-read from the stored artifact bytes.
type manifestResponse struct {
	manifest.Manifest
	SigPath string `json:"sig_path,omitempty"`
	Yanked  bool   `json:"yanked,omitempty"`
}

// resolveVersion loads the version named by the {ns}/{name}/{version} path,
// treating the literal segment "latest" as GetLatestVersion. A pinned
// version (never "latest", which can change underneath a cached entry) is
// served from app.Cache when one is configured.
func (app *App) resolveVersion(r *http.Request) (datastore.VersionRecord, error) {
	vars := mux.Vars(r)
	ns, name, version := vars["ns"], vars["name"], vars["version"]
	if version == "latest" {
		return app.DB.GetLatestVersion(r.Context(), ns, name)
	}

	if app.Cache != nil {
		var rec datastore.VersionRecord
		if app.Cache.Get(r.Context(), ns, name, version, &rec) {
			return rec, nil
		}
	}

	rec, err := app.DB.GetVersion(r.Context(), ns, name, version)
	if err == nil && app.Cache != nil {
		app.Cache.Set(r.Context(), ns, name, version, rec)
	}
	return rec, err
}

// handleGetPackage implements GET /v1/packages/{ns}/{name}/{version|latest}.
func (app *App) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	rec, err := app.resolveVersion(r)
	if errors.Is(err, datastore.ErrNotFound) {
		errcode.ServeJSON(w, errcode.ErrNotFound)
		return
	}
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrInternal.WithMessage("%s", err))
		return
	}

	resp := manifestResponse{
		Manifest: manifest.Manifest{
			Namespace:    rec.Namespace,
			Name:         rec.Name,
			Version:      rec.Version,
			Description:  rec.Description,
			Sha256:       rec.SHA256,
			CertChainPEM: rec.CertChainPEM,
		},
		SigPath: rec.SigPath,
		Yanked:  rec.YankedAt.Valid,
	}
	if rec.Category != nil {
		resp.Category = *rec.Category
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// handleDownloadArtifact implements GET /v1/download/{ns}/{name}/{version},
// streaming the .skill bytes stored at the version's storage_path.
func (app *App) handleDownloadArtifact(w http.ResponseWriter, r *http.Request) {
	app.serveObject(w, r, func(rec datastore.VersionRecord) string { return rec.StoragePath })
}

// handleDownloadSignature implements GET /v1/download/{ns}/{name}/{version}/sig,
// streaming the detached .sig bytes Stage 4 wrote next to the artifact. A
// job that has not yet reached Stage 4 has an empty sig_path, surfaced as
// 404 rather than an empty body.
func (app *App) handleDownloadSignature(w http.ResponseWriter, r *http.Request) {
	app.serveObject(w, r, func(rec datastore.VersionRecord) string { return rec.SigPath })
}

func (app *App) serveObject(w http.ResponseWriter, r *http.Request, key func(datastore.VersionRecord) string) {
	rec, err := app.resolveVersion(r)
	if errors.Is(err, datastore.ErrNotFound) {
		errcode.ServeJSON(w, errcode.ErrNotFound)
		return
	}
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrInternal.WithMessage("%s", err))
		return
	}

	storageKey := key(rec)
	if storageKey == "" {
		errcode.ServeJSON(w, errcode.ErrNotFound)
		return
	}

	content, err := app.Store.Get(r.Context(), storageKey)
	if errors.Is(err, objectstore.ErrNotFound) {
		errcode.ServeJSON(w, errcode.ErrNotFound)
		return
	}
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrDependencyUnavailable.WithMessage("%s", err))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(content)
}
