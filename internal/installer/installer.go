package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skillreg/registry/internal/manifest"
	"github.com/skillreg/registry/internal/refs"
	"github.com/skillreg/registry/internal/signing"
	"github.com/skillreg/registry/internal/skillpkg"
)

// ErrLocalIO tags an installer failure as a local-environment I/O problem
// (extracting the archive, writing the install log) rather than a
// remote/verification failure, so CLI callers can map it to the
// local-environment exit code distinct from a user/remote error.
var ErrLocalIO = errors.New("installer: local I/O failure")

// InstallLogName is the sidecar filename the installer writes into each
// installed version's directory, recording the digest it verified so a
// later verify pass can re-check the invariant without re-downloading.
const InstallLogName = ".skreg-install.json"

// InstallLog is the persisted record of what was installed and verified,
// the local counterpart of the registry's versions row.
type InstallLog struct {
	Namespace   string    `json:"namespace"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	SHA256      string    `json:"sha256"`
	SignerKind  string    `json:"signer_kind"`
	InstalledAt time.Time `json:"installed_at"`
}

// SignerKind tags who produced an installed package's signature, the
// installer-facing counterpart of the registry's polymorphic signer: a sum
// type, not a subclass hierarchy, mirroring spec §9 "Polymorphic signer".
type SignerKind struct {
	Registry  bool
	Publisher *PublisherSigner
}

// PublisherSigner is the Publisher variant's payload.
type PublisherSigner struct {
	CertSerial int64
}

// InstalledPackage is the installer's result type: what got installed,
// where, and who vouched for it.
type InstalledPackage struct {
	Ref      refs.PackageRef
	Path     string
	SHA256   string
	Signer   SignerKind
	Manifest manifest.Manifest
}

// Installer resolves PackageRefs against a registry, verifies the result,
// and materializes it under InstallRoot.
type Installer struct {
	Registry    *RegistryClient
	Verifier    *signing.Verifier
	InstallRoot string
}

// Install implements the full protocol of spec §4.7: resolve, download,
// verify digest then signature, check revocation, and extract. Any failure
// after extraction begins is cleaned up by removing the target directory
// before returning, per the error-handling design's "recoverable by
// cleanup only" rule for the installer.
func (in *Installer) Install(ctx context.Context, ref refs.PackageRef) (InstalledPackage, error) {
	m, yanked, err := in.Registry.FetchManifest(ctx, ref)
	if err != nil {
		return InstalledPackage{}, err
	}
	if yanked {
		return InstalledPackage{}, fmt.Errorf("installer: %s has been yanked", ref)
	}

	artifact, err := in.Registry.FetchArtifact(ctx, ref, m.Version)
	if err != nil {
		return InstalledPackage{}, err
	}

	signature, err := in.Registry.FetchSignature(ctx, ref, m.Version)
	if err != nil {
		return InstalledPackage{}, err
	}

	sum := sha256.Sum256(artifact)
	actual := hex.EncodeToString(sum[:])
	expected, err := refs.ParseDigest(m.Sha256)
	if err != nil {
		return InstalledPackage{}, fmt.Errorf("installer: manifest sha256 is malformed: %w", err)
	}
	if actual != string(expected) {
		return InstalledPackage{}, fmt.Errorf("installer: digest mismatch: expected %s, got %s", expected, actual)
	}

	var digestBytes [32]byte
	copy(digestBytes[:], sum[:])
	verified, err := in.Verifier.Verify(digestBytes, signature, m.CertChainPEM)
	if err != nil {
		return InstalledPackage{}, fmt.Errorf("installer: signature verification failed: %w", err)
	}

	targetDir := filepath.Join(in.InstallRoot, m.Namespace, m.Name, m.Version)

	signer := SignerKind{Registry: verified.CertSerial == nil}
	signerKindStr := "registry"
	if verified.CertSerial != nil {
		signer.Publisher = &PublisherSigner{CertSerial: *verified.CertSerial}
		signerKindStr = "publisher"
	}

	installedVersion := m.Version
	ref.Version, err = refVersionPtr(installedVersion)
	if err != nil {
		return InstalledPackage{}, err
	}

	if err := in.extract(artifact, targetDir, m, actual, signerKindStr); err != nil {
		os.RemoveAll(targetDir)
		return InstalledPackage{}, err
	}

	return InstalledPackage{
		Ref:      ref,
		Path:     targetDir,
		SHA256:   actual,
		Signer:   signer,
		Manifest: m,
	}, nil
}

func refVersionPtr(s string) (*refs.Version, error) {
	v, err := refs.ParseVersion(s)
	if err != nil {
		return nil, fmt.Errorf("installer: manifest version is malformed: %w", err)
	}
	return &v, nil
}

// extract unpacks artifact into targetDir (never crossing into a sibling
// version directory, enforced by skillpkg.Unpack's own path-traversal
// guard) and writes the install log sidecar.
func (in *Installer) extract(artifact []byte, targetDir string, m manifest.Manifest, digestHex, signerKind string) error {
	if err := skillpkg.Unpack(artifact, targetDir); err != nil {
		return fmt.Errorf("%w: extracting artifact: %s", ErrLocalIO, err)
	}

	if err := os.WriteFile(filepath.Join(targetDir, InstallTarballName), artifact, 0o644); err != nil {
		return fmt.Errorf("%w: caching tarball: %s", ErrLocalIO, err)
	}

	log := InstallLog{
		Namespace:  m.Namespace,
		Name:       m.Name,
		Version:    m.Version,
		SHA256:     digestHex,
		SignerKind: signerKind,
	}
	raw, err := marshalInstallLog(log)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrLocalIO, err)
	}
	if err := os.WriteFile(filepath.Join(targetDir, InstallLogName), raw, 0o644); err != nil {
		return fmt.Errorf("%w: writing install log: %s", ErrLocalIO, err)
	}
	return nil
}

// Uninstall removes an installed package's version directory. It is not
// an error to uninstall something that is not present.
func (in *Installer) Uninstall(ref refs.PackageRef) error {
	if ref.Version == nil {
		return fmt.Errorf("installer: uninstall requires a pinned version")
	}
	targetDir := filepath.Join(in.InstallRoot, string(ref.Namespace), string(ref.Name), ref.Version.String())
	if err := os.RemoveAll(targetDir); err != nil {
		return fmt.Errorf("%w: removing %s: %s", ErrLocalIO, targetDir, err)
	}
	return nil
}
