package target

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validManifest = `
id: ub22
name: Ubuntu 22.04
from: images/ubuntu-22.04.tar
package: slurm-mail
format: deb
artifact_glob: /build/src/build/*.deb
setup:
  - run: apt-get update
packaging:
  - run: ./build-tools/build.sh
`

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "ub22.yaml", validManifest)

	tgt, err := Load(dir, "ub22")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if tgt.Name != "Ubuntu 22.04" {
		t.Errorf("Name = %q", tgt.Name)
	}
	if tgt.Package != "slurm-mail" {
		t.Errorf("Package = %q", tgt.Package)
	}

	// Relative base archives resolve against the targets directory.
	want := filepath.Join(dir, "images", "ubuntu-22.04.tar")
	if tgt.From != want {
		t.Errorf("From = %q, want %q", tgt.From, want)
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(t.TempDir(), "nosuch")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadIDMismatch(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "other.yaml", validManifest)

	_, err := Load(dir, "other")
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() Target {
		return Target{
			ID:           "ub22",
			Name:         "Ubuntu 22.04",
			From:         "images/ubuntu-22.04.tar",
			Package:      "slurm-mail",
			Format:       "deb",
			ArtifactGlob: "/build/src/build/*.deb",
			Packaging:    []Step{{Run: "true"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Target)
		valid  bool
	}{
		{name: "valid", mutate: func(*Target) {}, valid: true},
		{name: "valid rpm", mutate: func(t *Target) { t.Format = "rpm" }, valid: true},
		{name: "bad id", mutate: func(t *Target) { t.ID = "Ubuntu 22" }},
		{name: "missing name", mutate: func(t *Target) { t.Name = "" }},
		{name: "missing from", mutate: func(t *Target) { t.From = "" }},
		{name: "missing package", mutate: func(t *Target) { t.Package = "" }},
		{name: "unknown format", mutate: func(t *Target) { t.Format = "apk" }},
		{name: "missing glob", mutate: func(t *Target) { t.ArtifactGlob = "" }},
		{name: "no packaging steps", mutate: func(t *Target) { t.Packaging = nil }},
		{name: "empty packaging step", mutate: func(t *Target) { t.Packaging = []Step{{}} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tgt := base()
			tc.mutate(&tgt)

			err := tgt.Validate()
			if tc.valid && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "ub22.yaml", validManifest)

	rhel9 := `
id: rhel9
name: RHEL 9
from: images/rockylinux-9.tar
package: slurm-mail
format: rpm
artifact_glob: /build/src/build/*.rpm
packaging:
  - run: ./build-tools/build.sh
`
	writeManifest(t, dir, "rhel9.yaml", rhel9)

	// Broken manifests are skipped, not fatal.
	writeManifest(t, dir, "broken.yaml", "id: broken\n")
	writeManifest(t, dir, "notes.txt", "not a manifest")

	targets, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(targets) != 2 {
		t.Fatalf("List returned %d targets, want 2", len(targets))
	}
	if targets[0].ID != "rhel9" || targets[1].ID != "ub22" {
		t.Fatalf("List order = [%s, %s], want [rhel9, ub22]", targets[0].ID, targets[1].ID)
	}
}

func TestHostPattern(t *testing.T) {
	tgt := Target{Package: "slurm-mail", Format: "deb"}
	if got := tgt.HostPattern(); got != "slurm-mail*.deb" {
		t.Fatalf("HostPattern = %q", got)
	}
}
