package stages

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillreg/registry/internal/manifest"
)

// secretPatterns are substrings whose presence in a markdown file
// suggests an embedded credential.
var secretPatterns = []string{
	"password=",
	"passwd=",
	"secret=",
	"api_key=",
	"apikey=",
	"token=",
	"private_key=",
	"-----begin",
}

// ContentError reports which Stage 2 check failed.
type ContentError struct {
	Kind    string
	Path    string
	Pattern string
}

func (e *ContentError) Error() string {
	switch e.Kind {
	case "description-too-short":
		return fmt.Sprintf("description is too short (minimum %d characters)", manifest.MinDescriptionLen)
	case "hardcoded-secret":
		return fmt.Sprintf("possible hardcoded secret found: '%s'", e.Pattern)
	case "non-md-in-references":
		return fmt.Sprintf("non-markdown file in references/: '%s'", e.Path)
	default:
		return fmt.Sprintf("content error: %s", e.Path)
	}
}

// CheckContent runs Stage 2 content checks against the unpacked directory
// at dir: the manifest's description must meet the minimum length, no
// markdown file may contain a hardcoded-secret-looking pattern, and
// references/ (if present) may contain only .md files.
func CheckContent(dir string) error {
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return fmt.Errorf("reading manifest.json: %w", err)
	}
	m, err := manifest.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing manifest.json: %w", err)
	}
	if err := m.ValidateShape(); err != nil {
		return &ContentError{Kind: "description-too-short"}
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		lower := strings.ToLower(string(content))
		for _, pattern := range secretPatterns {
			if strings.Contains(lower, pattern) {
				return &ContentError{Kind: "hardcoded-secret", Pattern: pattern}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	refsDir := filepath.Join(dir, "references")
	entries, err := os.ReadDir(refsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading references/: %w", err)
	}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".md") {
			return &ContentError{Kind: "non-md-in-references", Path: entry.Name()}
		}
	}
	return nil
}
