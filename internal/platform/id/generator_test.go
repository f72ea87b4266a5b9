package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_NewID(t *testing.T) {
	t.Parallel()

	g := NewUUIDGenerator()
	a, b := g.NewID(), g.NewID()
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("expected uuid, got %q: %v", a, err)
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	if got, ok := Sanitize(" req-1.a:b_c "); !ok || got != "req-1.a:b_c" {
		t.Fatalf("expected id to be kept, got %q ok=%v", got, ok)
	}
	for _, raw := range []string{"", "has space", "line\nbreak", string(make([]byte, 200))} {
		if _, ok := Sanitize(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
