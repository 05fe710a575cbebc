package build

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Removes artifacts from previous runs matching the target's filename
// pattern from the output directory.
//
// Idempotent: a pattern that matches nothing is not an error. Ensures a
// successful run leaves exactly the artifacts it produced. Also used by the
// clean command.
func CleanArtifacts(dir, pattern string) error {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return eris.Wrapf(err, "bad artifact pattern %q", pattern)
	}

	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return eris.Wrapf(err, "failed to remove stale artifact %s", path)
		}
		slog.Debug("stale artifact removed", "path", path)
	}

	return nil
}
