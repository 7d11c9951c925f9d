package installer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrVerificationFailed is returned by VerifyInstalled when the cached
// tarball no longer hashes to the digest recorded at install time — a
// verification failure, not a local I/O problem.
var ErrVerificationFailed = errors.New("installer: digest verification failed")

// InstallTarballName is the cached copy of the downloaded .skill bytes
// kept alongside the extracted tree, so VerifyInstalled can re-check the
// digest invariant offline without re-downloading or needing a stable
// re-pack of the extracted files.
const InstallTarballName = ".skreg-install.tar.gz"

func marshalInstallLog(log InstallLog) ([]byte, error) {
	log.InstalledAt = time.Now().UTC()
	raw, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("installer: encoding install log: %w", err)
	}
	return raw, nil
}

// ReadInstallLog loads the sidecar written by Install for the package
// directory at dir.
func ReadInstallLog(dir string) (InstallLog, error) {
	raw, err := os.ReadFile(filepath.Join(dir, InstallLogName))
	if err != nil {
		return InstallLog{}, fmt.Errorf("%w: reading install log: %s", ErrLocalIO, err)
	}
	var log InstallLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return InstallLog{}, fmt.Errorf("%w: parsing install log: %s", ErrLocalIO, err)
	}
	return log, nil
}

// VerifyInstalled re-checks the invariant SHA-256(install_log.tarball) ==
// install_log.sha256 for an already-installed package directory, against
// the cached tarball written at install time, without re-downloading.
func VerifyInstalled(dir string) error {
	log, err := ReadInstallLog(dir)
	if err != nil {
		return err
	}

	tarball, err := os.ReadFile(filepath.Join(dir, InstallTarballName))
	if err != nil {
		return fmt.Errorf("%w: reading cached tarball: %s", ErrLocalIO, err)
	}

	sum := sha256.Sum256(tarball)
	actual := hex.EncodeToString(sum[:])
	if actual != log.SHA256 {
		return fmt.Errorf("%w: installed package %s/%s@%s: expected %s, got %s",
			ErrVerificationFailed, log.Namespace, log.Name, log.Version, log.SHA256, actual)
	}
	return nil
}
