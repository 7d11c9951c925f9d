package skillpkg

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillreg/registry/internal/manifest"
)

func writeTestSkill(t *testing.T, dir string) []byte {
	t.Helper()
	m := manifest.Manifest{
		Namespace:   "acme",
		Name:        "deploy-helper",
		Version:     "1.0.0",
		Description: "A helpful deployment skill for acme infrastructure.",
	}
	raw, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("# Deploy Helper\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestPackStampsDigestAndRestoresSource(t *testing.T) {
	dir := t.TempDir()
	original := writeTestSkill(t, dir)

	tgz, err := Pack(dir)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	sum := sha256.Sum256(tgz)
	expected := hex.EncodeToString(sum[:])

	restored, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != string(original) {
		t.Fatalf("source manifest was not restored byte-identically")
	}

	unpackDir := t.TempDir()
	if err := Unpack(tgz, unpackDir); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(unpackDir, "manifest.json"))
	if err != nil {
		t.Fatal(err)
	}
	m, err := manifest.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if m.Sha256 != expected {
		t.Fatalf("manifest sha256 %q does not match artifact digest %q", m.Sha256, expected)
	}
}

func TestPackMissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Pack(dir); err == nil {
		t.Fatal("expected error for missing required files")
	}
}

func TestUnpackRejectsPathTraversal(t *testing.T) {
	// safeJoin is exercised directly since constructing a malicious tar
	// stream inline would otherwise dominate this test with boilerplate.
	if _, err := safeJoin(t.TempDir(), "../../etc/passwd"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}
