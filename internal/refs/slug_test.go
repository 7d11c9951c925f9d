package refs

import "testing"

func TestNewSlug(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"", true},
		{"acme-corp", false},
		{"Acme", true},
		{"a_b", true},
	}

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	cases = append(cases, struct {
		in      string
		wantErr bool
	}{string(long), true})

	for _, tc := range cases {
		_, err := NewSlug(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("NewSlug(%q) error=%v, wantErr=%v", tc.in, err, tc.wantErr)
		}
	}
}

func TestParseDigest(t *testing.T) {
	valid := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	d, err := ParseDigest(valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != valid {
		t.Fatalf("got %q, want %q", d, valid)
	}

	upper := "E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855"
	d2, err := ParseDigest(upper)
	if err != nil {
		t.Fatalf("unexpected error on uppercase: %v", err)
	}
	if d2 != d {
		t.Fatalf("uppercase digest did not normalize: got %q want %q", d2, d)
	}

	if _, err := ParseDigest("abc"); err == nil {
		t.Fatal("expected error for short digest")
	}
	if _, err := ParseDigest(valid[:63] + "g"); err == nil {
		t.Fatal("expected error for non-hex digest")
	}
}
