package build

import (
	"strings"
	"testing"

	"github.com/slurm-tools/pkgbuilder/internal/target"
)

func TestContainerID(t *testing.T) {
	a := containerID("ub22")
	b := containerID("ub22")

	if !strings.HasPrefix(a, "pkgbuilder-ub22-") {
		t.Fatalf("containerID = %q, want pkgbuilder-ub22-<suffix>", a)
	}

	// The random suffix keeps concurrent invocations from colliding.
	if a == b {
		t.Fatalf("containerID returned duplicate: %q", a)
	}

	suffix := strings.TrimPrefix(a, "pkgbuilder-ub22-")
	if len(suffix) != 8 {
		t.Fatalf("suffix %q has length %d, want 8", suffix, len(suffix))
	}
}

func TestPackagingState(t *testing.T) {
	tt := &target.Target{ID: "ub22", Package: "slurm-mail"}

	tests := []struct {
		name      string
		clean     bool
		wantClean string
	}{
		{name: "clean build", clean: true, wantClean: "1"},
		{name: "incremental build", clean: false, wantClean: "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := packagingState(tt, tc.clean)

			if state.workdir != "/build/src" {
				t.Errorf("workdir = %q, want /build/src", state.workdir)
			}
			if state.env["PKG_TARGET"] != "ub22" {
				t.Errorf("PKG_TARGET = %q, want ub22", state.env["PKG_TARGET"])
			}
			if state.env["PKG_CLEAN"] != tc.wantClean {
				t.Errorf("PKG_CLEAN = %q, want %q", state.env["PKG_CLEAN"], tc.wantClean)
			}
			if state.env["PKG_SOURCE"] != "/build/src" {
				t.Errorf("PKG_SOURCE = %q, want /build/src", state.env["PKG_SOURCE"])
			}
		})
	}
}

func TestEnvTag(t *testing.T) {
	if got := EnvTag("ub22"); got != "pkgbuilder/env/ub22:latest" {
		t.Fatalf("EnvTag = %q", got)
	}
	if got := baseTag("ub22"); got != "pkgbuilder/base/ub22:latest" {
		t.Fatalf("baseTag = %q", got)
	}
}
