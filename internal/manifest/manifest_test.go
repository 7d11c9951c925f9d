package manifest

import "testing"

func TestParseAndEncodeRoundTrip(t *testing.T) {
	m := Manifest{
		Namespace:   "acme",
		Name:        "deploy-helper",
		Version:     "1.0.0",
		Description: "A helpful deployment skill for acme infrastructure.",
		Sha256:      "0000000000000000000000000000000000000000000000000000000000000",
	}
	raw, err := m.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Namespace != m.Namespace || parsed.Name != m.Name {
		t.Fatalf("round-trip mismatch: %+v", parsed)
	}
}

func TestValidateShapeDescriptionTooShort(t *testing.T) {
	m := Manifest{Description: "short"}
	if err := m.ValidateShape(); err == nil {
		t.Fatal("expected error for short description")
	}
}

func TestValidateShapeTrimsWhitespace(t *testing.T) {
	m := Manifest{Description: "   short   "}
	if err := m.ValidateShape(); err == nil {
		t.Fatal("expected error for whitespace-padded short description")
	}
}

func TestValidateShapeOK(t *testing.T) {
	m := Manifest{Description: "A description that is long enough to pass"}
	if err := m.ValidateShape(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
