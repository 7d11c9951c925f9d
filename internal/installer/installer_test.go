package installer

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skillreg/registry/internal/manifest"
	"github.com/skillreg/registry/internal/refs"
	"github.com/skillreg/registry/internal/signing"
)

func selfSignedCA(t *testing.T) (*x509.Certificate, []byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-registry-intermediate"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IsCA:         true,
		KeyUsage:     x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsing certificate: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return cert, pemBytes, key
}

func TestInstallFailsWithoutSignature(t *testing.T) {
	_, caPEM, caKey := selfSignedCA(t)
	revocation := signing.NewInMemoryRevocationStore()
	verifier, err := signing.NewVerifier(caPEM, caPEM, revocation)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	artifact := []byte("fake tarball bytes for installer test")
	sum := sha256.Sum256(artifact)
	digestHex := hex.EncodeToString(sum[:])
	_ = caKey

	m := manifest.Manifest{
		Namespace:   "acme",
		Name:        "deploy-helper",
		Version:     "1.0.0",
		Description: "A helpful deployment skill.",
		Sha256:      digestHex,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/packages/acme/deploy-helper/1.0.0", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(struct {
			manifest.Manifest
		}{m})
	})
	mux.HandleFunc("/v1/download/acme/deploy-helper/1.0.0", func(w http.ResponseWriter, r *http.Request) {
		w.Write(artifact)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	in := &Installer{
		Registry:    NewRegistryClient(srv.URL),
		Verifier:    verifier,
		InstallRoot: dir,
	}

	ref, err := refs.ParsePackageRef("acme/deploy-helper@1.0.0")
	if err != nil {
		t.Fatalf("ParsePackageRef: %v", err)
	}

	_, err = in.Install(context.Background(), ref)
	if err == nil {
		t.Fatal("expected signature fetch 404 (no /sig route registered), got nil error")
	}
}

func TestInstallDigestMismatchCleansUp(t *testing.T) {
	_, caPEM, _ := selfSignedCA(t)
	revocation := signing.NewInMemoryRevocationStore()
	verifier, err := signing.NewVerifier(caPEM, caPEM, revocation)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	artifact := []byte("actual bytes")
	m := manifest.Manifest{
		Namespace:   "acme",
		Name:        "deploy-helper",
		Version:     "1.0.0",
		Description: "A helpful deployment skill.",
		Sha256:      strings.Repeat("0", 64),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/packages/acme/deploy-helper/1.0.0", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(struct{ manifest.Manifest }{m})
	})
	mux.HandleFunc("/v1/download/acme/deploy-helper/1.0.0", func(w http.ResponseWriter, r *http.Request) {
		w.Write(artifact)
	})
	mux.HandleFunc("/v1/download/acme/deploy-helper/1.0.0/sig", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("signature bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	in := &Installer{
		Registry:    NewRegistryClient(srv.URL),
		Verifier:    verifier,
		InstallRoot: dir,
	}

	ref, _ := refs.ParsePackageRef("acme/deploy-helper@1.0.0")
	_, err = in.Install(context.Background(), ref)
	if err == nil {
		t.Fatal("expected digest mismatch error")
	}
	if !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected digest mismatch error, got %v", err)
	}

	targetDir := filepath.Join(dir, "acme", "deploy-helper", "1.0.0")
	if _, statErr := os.Stat(targetDir); !os.IsNotExist(statErr) {
		t.Fatalf("expected install directory to not exist after failed install, stat err: %v", statErr)
	}
}
