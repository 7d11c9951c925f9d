// Package installer implements the client-side orchestrator that resolves a
// package reference against the registry's read API, verifies the
// downloaded artifact's digest and signature, and extracts it into a
// content-addressed on-disk package store.
package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/skillreg/registry/internal/manifest"
	"github.com/skillreg/registry/internal/refs"
)

// RegistryClient is the installer's HTTP view of the registry's read API:
// GET /v1/packages/{ns}/{name}/{version|latest} and the two download
// endpoints. Kept deliberately narrow — the installer never authenticates
// or mutates registry state, unlike the publish-side admission client.
type RegistryClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewRegistryClient constructs a RegistryClient against baseURL (e.g.
// "https://registry.example.com"), using http.DefaultClient unless
// overridden.
func NewRegistryClient(baseURL string) *RegistryClient {
	return &RegistryClient{BaseURL: baseURL, HTTP: http.DefaultClient}
}

type manifestResponse struct {
	manifest.Manifest
	SigPath string `json:"sig_path,omitempty"`
	Yanked  bool   `json:"yanked,omitempty"`
}

// FetchManifest implements protocol step (1): GET
// /v1/packages/{ns}/{name}/{version|latest}.
func (c *RegistryClient) FetchManifest(ctx context.Context, ref refs.PackageRef) (manifest.Manifest, bool, error) {
	url := fmt.Sprintf("%s/v1/packages/%s/%s/%s", c.BaseURL, ref.Namespace, ref.Name, ref.VersionOrLatest())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return manifest.Manifest{}, false, fmt.Errorf("installer: building manifest request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return manifest.Manifest{}, false, fmt.Errorf("installer: fetching manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return manifest.Manifest{}, false, fmt.Errorf("installer: package %s not found", ref)
	}
	if resp.StatusCode != http.StatusOK {
		return manifest.Manifest{}, false, fmt.Errorf("installer: fetching manifest: unexpected status %d", resp.StatusCode)
	}

	var mr manifestResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return manifest.Manifest{}, false, fmt.Errorf("installer: decoding manifest response: %w", err)
	}
	return mr.Manifest, mr.Yanked, nil
}

// FetchArtifact implements protocol step (2): GET the artifact bytes from
// the download URL derived from the manifest.
func (c *RegistryClient) FetchArtifact(ctx context.Context, ref refs.PackageRef, version string) ([]byte, error) {
	return c.fetchBytes(ctx, fmt.Sprintf("%s/v1/download/%s/%s/%s", c.BaseURL, ref.Namespace, ref.Name, version))
}

// FetchSignature implements protocol step (3): GET the signature bytes
// from the same URL suffixed with /sig.
func (c *RegistryClient) FetchSignature(ctx context.Context, ref refs.PackageRef, version string) ([]byte, error) {
	return c.fetchBytes(ctx, fmt.Sprintf("%s/v1/download/%s/%s/%s/sig", c.BaseURL, ref.Namespace, ref.Name, version))
}

func (c *RegistryClient) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("installer: building request for %s: %w", url, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("installer: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("installer: %s not found", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("installer: fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("installer: reading response body for %s: %w", url, err)
	}
	return body, nil
}
