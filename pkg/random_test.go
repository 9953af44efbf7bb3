package pkg

import (
	"strings"
	"testing"
)

func TestRandString(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := RandString(8)
		if len(s) != 8 {
			t.Fatalf("%q has length %d", s, len(s))
		}
		for _, r := range s {
			if !strings.ContainsRune(letters, r) {
				t.Fatalf("%q contains %q", s, r)
			}
		}
		seen[s] = true
	}
	if len(seen) < 95 {
		t.Fatalf("only %d distinct codes", len(seen))
	}
}
