package stages

import (
	"strings"
	"testing"
)

func TestLevenshteinIdenticalIsZero(t *testing.T) {
	if d := Levenshtein("abc", "abc"); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
}

func TestLevenshteinOneEdit(t *testing.T) {
	if d := Levenshtein("abc", "abx"); d != 1 {
		t.Fatalf("expected 1, got %d", d)
	}
}

func TestLevenshteinDisjointIsThree(t *testing.T) {
	if d := Levenshtein("abc", "xyz"); d != 3 {
		t.Fatalf("expected 3, got %d", d)
	}
}

func TestSquattingDetectedWithinTwo(t *testing.T) {
	if !IsSquatting("reakt", []string{"react"}) {
		t.Fatal("expected squatting to be detected")
	}
}

func TestNoSquattingWhenClear(t *testing.T) {
	if IsSquatting("my-unique-skill-name-xyz", []string{"react"}) {
		t.Fatal("expected no squatting")
	}
}

func TestCheckSafetyRejectsSquatting(t *testing.T) {
	err := CheckSafety("reakt", "1.0.0", []string{"react"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Levenshtein distance 1") {
		t.Fatalf("expected distance 1 in message, got %v", err)
	}
}

func TestCheckSafetyRejectsYankedReupload(t *testing.T) {
	err := CheckSafety("deploy-helper", "1.0.0", nil, [][2]string{{"deploy-helper", "1.0.0"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsYanked(err) {
		t.Fatal("expected IsYanked to report true")
	}
}

func TestCheckSafetyAllowsPriorSelf(t *testing.T) {
	if err := CheckSafety("react", "2.0.0", []string{"react"}, nil); err != nil {
		t.Fatalf("expected no error for distance-0 self match, got %v", err)
	}
}
