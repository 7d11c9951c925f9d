// Package stages implements the four-stage vetting pipeline: structure,
// content, safety, and signing, run in that order against an unpacked
// skill directory.
package stages

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	maxTotalBytes = 5 * 1024 * 1024
)

var (
	requiredFiles     = []string{"SKILL.md", "manifest.json"}
	allowedExtensions = map[string]bool{"md": true, "json": true}
)

// StructureError reports which Stage 1 check failed.
type StructureError struct {
	Kind string
	Path string
	Size int64
	Max  int64
}

func (e *StructureError) Error() string {
	switch e.Kind {
	case "missing-file":
		return fmt.Sprintf("required file '%s' is missing", e.Path)
	case "too-large":
		return fmt.Sprintf("package size %d bytes exceeds maximum of %d bytes", e.Size, e.Max)
	case "disallowed-type":
		return fmt.Sprintf("disallowed file type: '%s'", e.Path)
	case "symlink":
		return fmt.Sprintf("symlinks are not allowed: '%s'", e.Path)
	default:
		return fmt.Sprintf("structure error: %s", e.Path)
	}
}

// CheckStructure runs Stage 1 structural checks on the unpacked directory
// at dir: both required files must exist, every regular file's extension
// must be allow-listed, total size must not exceed the limit, and
// symlinks are rejected outright rather than followed.
func CheckStructure(dir string) error {
	for _, required := range requiredFiles {
		if _, err := os.Lstat(filepath.Join(dir, required)); err != nil {
			return &StructureError{Kind: "missing-file", Path: required}
		}
	}

	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			rel, _ := filepath.Rel(dir, path)
			return &StructureError{Kind: "symlink", Path: rel}
		}

		ext := filepath.Ext(path)
		ext = trimLeadingDot(ext)
		if !allowedExtensions[ext] {
			rel, _ := filepath.Rel(dir, path)
			return &StructureError{Kind: "disallowed-type", Path: rel}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		if total > maxTotalBytes {
			return &StructureError{Kind: "too-large", Size: total, Max: maxTotalBytes}
		}
		return nil
	})
	return err
}

func trimLeadingDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
