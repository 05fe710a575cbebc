package build

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanArtifacts(t *testing.T) {
	dir := t.TempDir()

	stale := []string{"slurm-mail_4.21-1_all.deb", "slurm-mail_4.22-1_all.deb"}
	keep := []string{"notes.txt", "other-tool_1.0.deb"}

	for _, name := range append(append([]string{}, stale...), keep...) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if err := CleanArtifacts(dir, "slurm-mail*.deb"); err != nil {
		t.Fatalf("CleanArtifacts: %v", err)
	}

	for _, name := range stale {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("stale artifact %s still present", name)
		}
	}
	for _, name := range keep {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("unrelated file %s was removed", name)
		}
	}
}

func TestCleanArtifactsEmptyDir(t *testing.T) {
	// A pattern matching nothing must be a no-op, not an error.
	if err := CleanArtifacts(t.TempDir(), "slurm-mail*.deb"); err != nil {
		t.Fatalf("CleanArtifacts on empty dir: %v", err)
	}
}
