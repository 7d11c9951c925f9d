package admission

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/skillreg/registry/internal/datastore"
	"github.com/skillreg/registry/internal/dcontext"
	"github.com/skillreg/registry/internal/errcode"
	"github.com/skillreg/registry/internal/manifest"
	"github.com/skillreg/registry/internal/metrics"
	"github.com/skillreg/registry/internal/objectstore"
	"github.com/skillreg/registry/internal/refs"
	"github.com/skillreg/registry/internal/skillpkg"
)

type publishResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// handlePublish implements POST /v1/publish per the admission protocol.
func (app *App) handlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := dcontext.GetLogger(ctx)

	key, err := app.resolveBearer(ctx, r)
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrUnauthorized.WithMessage("%s", err))
		metrics.ObservePublish("unauthorized")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxArtifactBytes+1))
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrInvalidArtifact.WithMessage("reading request body: %s", err))
		metrics.ObservePublish("rejected")
		return
	}
	if len(body) > MaxArtifactBytes {
		errcode.ServeJSON(w, errcode.ErrInvalidArtifact.WithMessage("artifact exceeds maximum size of %d bytes", MaxArtifactBytes))
		metrics.ObservePublish("rejected")
		return
	}

	sum := sha256.Sum256(body)
	computed := hex.EncodeToString(sum[:])

	scratchDir, err := skillpkg.UnpackToTempDir(body)
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrInvalidArtifact.WithMessage("unpacking artifact: %s", err))
		metrics.ObservePublish("rejected")
		return
	}

	m, err := readManifest(scratchDir)
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrInvalidArtifact.WithMessage("%s", err))
		metrics.ObservePublish("rejected")
		return
	}

	if m.Namespace != key.Slug {
		errcode.ServeJSON(w, errcode.ErrNamespaceMismatch.WithMessage("manifest namespace %q does not match authenticated namespace %q", m.Namespace, key.Slug))
		metrics.ObservePublish("rejected")
		return
	}
	if m.Sha256 != computed {
		errcode.ServeJSON(w, errcode.ErrInvalidArtifact.WithMessage("manifest sha256 %q does not match computed digest %q", m.Sha256, computed))
		metrics.ObservePublish("rejected")
		return
	}
	if err := m.ValidateShape(); err != nil {
		errcode.ServeJSON(w, errcode.ErrInvalidArtifact.WithMessage("%s", err))
		metrics.ObservePublish("rejected")
		return
	}
	if _, err := refs.NewSlug(m.Name); err != nil {
		errcode.ServeJSON(w, errcode.ErrInvalidArtifact.WithMessage("invalid package name: %s", err))
		metrics.ObservePublish("rejected")
		return
	}
	if _, err := refs.ParseVersion(m.Version); err != nil {
		errcode.ServeJSON(w, errcode.ErrInvalidArtifact.WithMessage("invalid version: %s", err))
		metrics.ObservePublish("rejected")
		return
	}

	exists, err := app.DB.VersionExists(ctx, key.NamespaceID, m.Name, m.Version)
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrInternal.WithMessage("%s", err))
		metrics.ObservePublish("rejected")
		return
	}
	if exists {
		errcode.ServeJSON(w, errcode.ErrVersionExists)
		metrics.ObservePublish("rejected")
		return
	}

	// Past this point the artifact has been fully validated: the upload and
	// the database transaction that follows run against a detached context so
	// a client disconnect mid-request does not cut them short. The upload
	// comes first, so a failure between the two leaves at worst an orphan
	// blob (reclaimable by a prefix scan), never a version row pointing at
	// missing bytes.
	durableCtx := dcontext.DetachedContext(ctx)

	storagePath := objectstore.ArtifactKey(m.Namespace, m.Name, m.Version, computed)
	if err := app.Store.Put(durableCtx, storagePath, body); err != nil {
		errcode.ServeJSON(w, errcode.ErrDependencyUnavailable.WithMessage("uploading artifact: %s", err))
		metrics.ObservePublish("rejected")
		return
	}

	var category *string
	if m.Category != "" {
		category = &m.Category
	}

	result, err := app.DB.Publish(durableCtx, datastore.PublishParams{
		NamespaceID:  key.NamespaceID,
		PackageName:  m.Name,
		Description:  m.Description,
		Category:     category,
		Version:      m.Version,
		SHA256:       computed,
		StoragePath:  storagePath,
		CertChainPEM: m.CertChainPEM,
	})
	if err != nil {
		if errors.Is(err, datastore.ErrVersionExists) {
			errcode.ServeJSON(w, errcode.ErrVersionExists)
			metrics.ObservePublish("rejected")
			return
		}
		errcode.ServeJSON(w, errcode.ErrInternal.WithMessage("%s", err))
		metrics.ObservePublish("rejected")
		return
	}

	logger.Infof("admitted publish for %s/%s@%s, job %s", m.Namespace, m.Name, m.Version, result.JobID)
	metrics.ObservePublish("accepted")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, publishResponse{JobID: result.JobID.String(), Message: "accepted for vetting"})
}

func readManifest(scratchDir string) (manifest.Manifest, error) {
	raw, err := readFile(scratchDir, "manifest.json")
	if err != nil {
		return manifest.Manifest{}, err
	}
	return manifest.Parse(raw)
}
