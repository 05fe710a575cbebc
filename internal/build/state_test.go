package build

import (
	"sort"
	"testing"

	"github.com/slurm-tools/pkgbuilder/internal/target"
)

func TestStepStateApply(t *testing.T) {
	state := newStepState()

	if state.shell != defaultShell {
		t.Fatalf("default shell = %q, want %q", state.shell, defaultShell)
	}

	state.apply(target.Step{Shell: "/bin/bash"})
	if state.shell != "/bin/bash" {
		t.Fatalf("shell = %q after apply, want /bin/bash", state.shell)
	}

	state.apply(target.Step{Workdir: "/build/src"})
	if state.workdir != "/build/src" {
		t.Fatalf("workdir = %q after apply, want /build/src", state.workdir)
	}

	// Applying an unrelated modifier must not reset earlier ones.
	state.apply(target.Step{Env: map[string]string{"A": "1"}})
	if state.shell != "/bin/bash" || state.workdir != "/build/src" {
		t.Fatal("apply reset unrelated state fields")
	}
	if state.env["A"] != "1" {
		t.Fatalf("env[A] = %q, want 1", state.env["A"])
	}
}

func TestStepStateResolve(t *testing.T) {
	state := newStepState()
	state.apply(target.Step{
		Workdir: "/persistent",
		Env:     map[string]string{"A": "1", "B": "2"},
	})

	resolved := state.resolve(target.Step{
		Workdir: "/scoped",
		Env:     map[string]string{"B": "override"},
	})

	if resolved.workdir != "/scoped" {
		t.Fatalf("resolved workdir = %q, want /scoped", resolved.workdir)
	}
	if resolved.env["A"] != "1" || resolved.env["B"] != "override" {
		t.Fatalf("resolved env = %v", resolved.env)
	}

	// The persistent state must be untouched.
	if state.workdir != "/persistent" {
		t.Fatalf("persistent workdir = %q, want /persistent", state.workdir)
	}
	if state.env["B"] != "2" {
		t.Fatalf("persistent env[B] = %q, want 2", state.env["B"])
	}
}

func TestStepStateEnviron(t *testing.T) {
	state := newStepState()
	state.apply(target.Step{Env: map[string]string{"B": "2", "A": "1"}})

	env := state.environ()
	sort.Strings(env)

	want := []string{"A=1", "B=2"}
	if len(env) != len(want) {
		t.Fatalf("environ = %v, want %v", env, want)
	}
	for i := range env {
		if env[i] != want[i] {
			t.Fatalf("environ[%d] = %q, want %q", i, env[i], want[i])
		}
	}
}
