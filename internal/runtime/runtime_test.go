package runtime

import (
	"strings"
	"testing"
)

func TestHostPlatform(t *testing.T) {
	p := hostPlatform()
	if !strings.HasPrefix(p, "linux/") {
		t.Fatalf("hostPlatform = %q, want linux/<arch>", p)
	}
	parts := strings.Split(p, "/")
	if len(parts) != 2 || parts[1] == "" {
		t.Fatalf("hostPlatform = %q, want linux/<arch>", p)
	}
}
