package target

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Package formats the orchestrator knows how to verify.
const (
	FormatDeb = "deb"
	FormatRPM = "rpm"
)

// Valid target identifiers: short lowercase OS slugs like "ub22" or "rhel9".
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// Describes one OS build target.
type Target struct {
	ID           string `yaml:"id"`            // Short identifier, doubles as the manifest filename.
	Name         string `yaml:"name"`          // Human-readable OS name (e.g., "Ubuntu 22.04").
	From         string `yaml:"from"`          // Base image OCI archive, relative to the targets directory.
	Package      string `yaml:"package"`       // Expected package name of the artifact.
	Format       string `yaml:"format"`        // Artifact format: "deb" or "rpm".
	ArtifactGlob string `yaml:"artifact_glob"` // In-container glob locating the produced artifact.
	Setup        []Step `yaml:"setup"`         // Provisioning steps, run once and cached.
	Packaging    []Step `yaml:"packaging"`     // Packaging steps, run on every build.
}

// A single manifest step.
//
// A step either runs a command or adjusts the execution state for
// subsequent steps. Modifier fields on a run step apply to that step only.
type Step struct {
	Run     string            `yaml:"run,omitempty"`     // Shell command to execute.
	Shell   string            `yaml:"shell,omitempty"`   // Shell override (default /bin/sh).
	Workdir string            `yaml:"workdir,omitempty"` // Working directory override.
	Env     map[string]string `yaml:"env,omitempty"`     // Environment variable overrides.
}

// Loads and validates the manifest for a target ID from the given directory.
func Load(dir, id string) (*Target, error) {
	if !idPattern.MatchString(id) {
		return nil, eris.Wrapf(ErrInvalid, "bad target id %q", id)
	}

	path := filepath.Join(dir, id+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNotFound, "%s", id)
		}
		return nil, eris.Wrapf(err, "failed to read target %s", id)
	}

	var t Target
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrapf(err, "failed to parse target %s", id)
	}

	if t.ID != id {
		return nil, eris.Wrapf(ErrInvalid, "manifest id %q does not match filename %q", t.ID, id)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	// Base archives are referenced relative to the targets directory so a
	// checkout can be built from any working directory.
	if !filepath.IsAbs(t.From) {
		t.From = filepath.Join(dir, t.From)
	}

	return &t, nil
}

// Lists all targets defined in the given directory, sorted by ID.
//
// Manifests that fail validation are skipped; the caller gets every target
// that could actually be built.
func List(dir string) ([]*Target, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read targets directory %s", dir)
	}

	var targets []*Target
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}

		t, err := Load(dir, strings.TrimSuffix(name, ".yaml"))
		if err != nil {
			continue
		}
		targets = append(targets, t)
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })
	return targets, nil
}

// Checks the manifest for the fields the orchestrator requires.
func (t *Target) Validate() error {
	switch {
	case !idPattern.MatchString(t.ID):
		return eris.Wrapf(ErrInvalid, "bad id %q", t.ID)
	case t.Name == "":
		return eris.Wrapf(ErrInvalid, "%s: missing name", t.ID)
	case t.From == "":
		return eris.Wrapf(ErrInvalid, "%s: missing base image archive", t.ID)
	case t.Package == "":
		return eris.Wrapf(ErrInvalid, "%s: missing package name", t.ID)
	case t.Format != FormatDeb && t.Format != FormatRPM:
		return eris.Wrapf(ErrInvalid, "%s: unknown format %q", t.ID, t.Format)
	case t.ArtifactGlob == "":
		return eris.Wrapf(ErrInvalid, "%s: missing artifact glob", t.ID)
	case len(t.Packaging) == 0:
		return eris.Wrapf(ErrInvalid, "%s: no packaging steps", t.ID)
	}

	for i, s := range t.Packaging {
		if s.Run == "" && s.Shell == "" && s.Workdir == "" && len(s.Env) == 0 {
			return eris.Wrapf(ErrInvalid, "%s: packaging step %d is empty", t.ID, i+1)
		}
	}

	return nil
}

// Returns the host-side filename pattern of artifacts this target produces.
//
// Used for stale artifact cleanup in the output directory before a run.
func (t *Target) HostPattern() string {
	return fmt.Sprintf("%s*.%s", t.Package, t.Format)
}
