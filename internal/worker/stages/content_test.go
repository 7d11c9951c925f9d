package stages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func makeSkill(t *testing.T, dir, description string) {
	t.Helper()
	manifestJSON := fmt.Sprintf(`{"namespace":"acme","name":"test","version":"1.0.0","description":%q,"sha256":"","cert_chain_pem":[]}`, description)
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifestJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("---\ndescription: "+description+"\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDescriptionTooShortFails(t *testing.T) {
	dir := t.TempDir()
	makeSkill(t, dir, "short")
	if err := CheckContent(dir); err == nil {
		t.Fatal("expected error")
	}
}

func TestHardcodedSecretFails(t *testing.T) {
	dir := t.TempDir()
	makeSkill(t, dir, "A description that is long enough to pass the length check here")
	os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("password=hunter2"), 0o644)
	err := CheckContent(dir)
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *ContentError
	if !errors.As(err, &ce) || ce.Kind != "hardcoded-secret" {
		t.Fatalf("expected hardcoded-secret error, got %v", err)
	}
}

func TestNonMdInReferencesFails(t *testing.T) {
	dir := t.TempDir()
	makeSkill(t, dir, "A description that is long enough to pass the length check here")
	os.Mkdir(filepath.Join(dir, "references"), 0o755)
	os.WriteFile(filepath.Join(dir, "references", "script.py"), []byte("code"), 0o644)
	if err := CheckContent(dir); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidPackagePasses(t *testing.T) {
	dir := t.TempDir()
	makeSkill(t, dir, "A description that is long enough to pass the length check here")
	if err := CheckContent(dir); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}
