package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	us := NewNormalizer("us")
	if got := us.NormalizeE164("(650) 253-0000"); got != "+16502530000" {
		t.Fatalf("expected +16502530000, got %q", got)
	}

	nl := NewNormalizer("NL")
	if got := nl.NormalizeE164("020 794 3600"); got != "+31207943600" {
		t.Fatalf("expected +31207943600, got %q", got)
	}

	if got := us.NormalizeE164("  not a number "); got != "not a number" {
		t.Fatalf("expected trimmed passthrough, got %q", got)
	}
	if got := us.NormalizeE164(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
