package idgen

import (
	"strings"
	"testing"
)

func TestNanoIDLengthAndAlphabet(t *testing.T) {
	gen := NanoID(8)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := gen()
		if len(id) != 8 {
			t.Fatalf("length: got %d, want 8", len(id))
		}
		for _, r := range id {
			if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuvwxyz", r) {
				t.Fatalf("unexpected rune %q in %q", r, id)
			}
		}
		seen[id] = true
	}
	if len(seen) < 95 {
		t.Errorf("too many collisions: %d distinct of 100", len(seen))
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("prd_", UUIDv7())
	id := gen()
	if !strings.HasPrefix(id, "prd_") {
		t.Errorf("missing prefix: %q", id)
	}
	if len(id) != len("prd_")+36 {
		t.Errorf("unexpected length: %q", id)
	}
}

func TestUUIDv7Sortable(t *testing.T) {
	gen := UUIDv7()
	a, b := gen(), gen()
	if a == b {
		t.Fatal("consecutive IDs identical")
	}
}
