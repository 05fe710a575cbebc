package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/slurm-tools/pkgbuilder/internal"
	"github.com/slurm-tools/pkgbuilder/internal/paths"
	"github.com/slurm-tools/pkgbuilder/internal/runtime"
	"github.com/slurm-tools/pkgbuilder/internal/target"
)

// Returns the containerd tag of the provisioned build environment for a
// target.
func EnvTag(targetID string) string {
	return internal.Name + "/env/" + targetID + ":latest"
}

// Returns the containerd tag for a target's unprovisioned base image.
func baseTag(targetID string) string {
	return internal.Name + "/base/" + targetID + ":latest"
}

// Ensures the target's build environment image is imported and tagged,
// returning its tag.
//
// The first run imports the base archive, runs the target's setup steps in
// a throwaway container, and commits the result to the environment cache.
// Later runs reuse the already-tagged image, or import the cached archive,
// skipping provisioning. With refresh set, the image and cache are ignored
// and rebuilt.
func ensureEnv(ctx context.Context, eng *runtime.Engine, t *target.Target, refresh bool) (string, error) {
	tag := EnvTag(t.ID)

	if !refresh {
		ok, err := eng.HasImage(ctx, tag)
		if err != nil {
			return "", err
		}
		if ok {
			slog.Debug("environment image already present", "target", t.ID, "tag", tag)
			return tag, nil
		}
	}

	// A target without setup steps builds directly on its base image.
	if len(t.Setup) == 0 {
		if err := eng.ImportImage(ctx, t.From, tag); err != nil {
			return "", err
		}
		return tag, nil
	}

	cache := paths.EnvImage(t.ID)

	if !refresh {
		if _, err := os.Stat(cache); err == nil {
			if err := eng.ImportImage(ctx, cache, tag); err == nil {
				slog.Debug("using cached environment", "target", t.ID, "path", cache)
				return tag, nil
			}
			slog.Warn("cached environment unusable, reprovisioning", "target", t.ID, "path", cache)
		}
	}

	if err := provisionEnv(ctx, eng, t, cache); err != nil {
		return "", err
	}

	if err := eng.ImportImage(ctx, cache, tag); err != nil {
		return "", err
	}

	return tag, nil
}

// Provisions a fresh build environment and commits it to the cache path.
//
// The base archive is imported, a throwaway container runs the target's
// setup steps, and the stopped container's filesystem is committed as an
// OCI archive. The throwaway container is destroyed on every exit path.
func provisionEnv(ctx context.Context, eng *runtime.Engine, t *target.Target, cache string) error {
	slog.Info("provisioning build environment", "target", t.ID, "from", t.From)

	base := baseTag(t.ID)
	if err := eng.ImportImage(ctx, t.From, base); err != nil {
		return err
	}

	ctr, err := eng.StartContainer(ctx, base, containerID(t.ID+"-env"))
	if err != nil {
		return err
	}
	defer ctr.Destroy(ctx)

	state := newStepState()
	state.env["PKG_TARGET"] = t.ID

	if err := executeSteps(ctx, ctr, t.Setup, state); err != nil {
		return eris.Wrapf(err, "provisioning failed for %s", t.ID)
	}

	// Quiesce the snapshot before committing.
	if err := ctr.Stop(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cache), paths.DefaultDirMode); err != nil {
		return eris.Wrap(err, "failed to create environment cache directory")
	}

	return ctr.Commit(ctx, cache)
}

// Removes a target's cached environment: the on-disk archive and the
// containerd tags. Used by the clean command.
func CleanEnv(ctx context.Context, eng *runtime.Engine, targetID string) error {
	if err := eng.RemoveImage(ctx, EnvTag(targetID)); err != nil {
		return err
	}
	if err := eng.RemoveImage(ctx, baseTag(targetID)); err != nil {
		return err
	}

	cache := paths.EnvImage(targetID)
	if err := os.Remove(cache); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "failed to remove cached environment %s", cache)
	}

	return nil
}
