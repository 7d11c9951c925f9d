package stages

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeValidDir(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("---\nname: test\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{"name":"test"}`), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestValidDirectoryPassesStructureChecks(t *testing.T) {
	dir := t.TempDir()
	makeValidDir(t, dir)
	if err := CheckStructure(dir); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestMissingSkillMdFails(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{}"), 0o644)
	if err := CheckStructure(dir); err == nil {
		t.Fatal("expected error")
	}
}

func TestMissingManifestFails(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("---\n---\n"), 0o644)
	if err := CheckStructure(dir); err == nil {
		t.Fatal("expected error")
	}
}

func TestOversizedPackageFails(t *testing.T) {
	dir := t.TempDir()
	makeValidDir(t, dir)
	big := make([]byte, 6*1024*1024)
	os.WriteFile(filepath.Join(dir, "big.md"), big, 0o644)
	err := CheckStructure(dir)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("expected too-large error, got %v", err)
	}
}

func TestDisallowedExtensionFails(t *testing.T) {
	dir := t.TempDir()
	makeValidDir(t, dir)
	os.WriteFile(filepath.Join(dir, "script.py"), []byte("x"), 0o644)
	if err := CheckStructure(dir); err == nil {
		t.Fatal("expected error for disallowed extension")
	}
}

func TestSymlinkRejected(t *testing.T) {
	dir := t.TempDir()
	makeValidDir(t, dir)
	if err := os.Symlink(filepath.Join(dir, "SKILL.md"), filepath.Join(dir, "link.md")); err != nil {
		t.Skipf("symlinks unsupported on this platform: %v", err)
	}
	if err := CheckStructure(dir); err == nil {
		t.Fatal("expected error for symlink presence")
	}
}
