// Package skillpkg packs and unpacks .skill artifacts: gzip-compressed
// POSIX tarballs containing SKILL.md, manifest.json, and optional reference
// documents.
package skillpkg

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skillreg/registry/internal/manifest"
)

// RequiredFiles must be present at the root of any directory being packed.
var RequiredFiles = []string{"SKILL.md", "manifest.json"}

// Pack builds a gzip-compressed tarball from the contents of sourceDir.
//
// The manifest's own sha256 field is self-referential, so Pack performs a
// two-pass build: it packs once with manifest.json's sha256 field blanked
// out, hashes the result, rewrites manifest.json on disk with the computed
// digest, and repacks. The source manifest.json is restored to its original
// bytes before returning (on both success and failure paths), since Pack
// must not leave the working directory mutated.
func Pack(sourceDir string) ([]byte, error) {
	for _, f := range RequiredFiles {
		if _, err := os.Stat(filepath.Join(sourceDir, f)); err != nil {
			return nil, fmt.Errorf("required file %q is missing", f)
		}
	}

	manifestPath := filepath.Join(sourceDir, "manifest.json")
	original, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest.json: %w", err)
	}

	restore := func() error {
		return os.WriteFile(manifestPath, original, 0o644)
	}
	defer restore() //nolint:errcheck // best-effort restore of caller's working tree

	m, err := manifest.Parse(original)
	if err != nil {
		return nil, err
	}

	// Pass 1: pack with sha256 blank, to learn the digest.
	m.Sha256 = ""
	blanked, err := m.Encode()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(manifestPath, blanked, 0o644); err != nil {
		return nil, fmt.Errorf("writing blanked manifest: %w", err)
	}

	firstPass, err := tarGzDir(sourceDir)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(firstPass)
	digestHex := hex.EncodeToString(sum[:])

	// Pass 2: stamp the digest and repack.
	m.Sha256 = digestHex
	stamped, err := m.Encode()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(manifestPath, stamped, 0o644); err != nil {
		return nil, fmt.Errorf("writing stamped manifest: %w", err)
	}

	secondPass, err := tarGzDir(sourceDir)
	if err != nil {
		return nil, err
	}

	if err := restore(); err != nil {
		return nil, fmt.Errorf("restoring source manifest: %w", err)
	}

	return secondPass, nil
}

// tarGzDir walks sourceDir and writes a deterministic (lexicographically
// sorted) gzip tarball of its regular files and directories. Hidden entries
// (dotfiles, .git) are excluded.
func tarGzDir(sourceDir string) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	tw := tar.NewWriter(gz)

	var paths []string
	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", sourceDir, err)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		full := filepath.Join(sourceDir, rel)
		info, err := os.Lstat(full)
		if err != nil {
			return nil, err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("symlinks are not supported: %s", rel)
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return nil, err
		}
		hdr.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if info.IsDir() {
			continue
		}

		f, err := os.Open(full)
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(tw, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("copying %s into tarball: %w", rel, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isHidden(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
