package cli

import (
	"context"
	"log/slog"

	"github.com/slurm-tools/pkgbuilder/internal/build"
	"github.com/slurm-tools/pkgbuilder/internal/runtime"
	"github.com/slurm-tools/pkgbuilder/internal/target"
)

// Represents the 'pkgbuilder clean' command.
type CleanCmd struct {
	Target string `arg:"" optional:"" help:"Clean a single target. Defaults to all targets."`
	Output string `short:"o" help:"Directory holding stale artifacts." default:"." placeholder:"DIR"`
	Env    bool   `help:"Also remove cached build-environment images."`
}

// Executes the clean command.
//
// Removes stale artifacts matching each target's filename pattern from the
// output directory, and optionally the cached environment images from both
// containerd and the on-disk cache.
func (c *CleanCmd) Run(ctx context.Context) error {
	targets, err := c.selectTargets()
	if err != nil {
		return err
	}

	var eng *runtime.Engine
	if c.Env {
		if eng, err = runtime.Connect(RootCmd.Containerd, RootCmd.Namespace); err != nil {
			return err
		}
		defer eng.Close()
	}

	for _, t := range targets {
		if err := build.CleanArtifacts(c.Output, t.HostPattern()); err != nil {
			return err
		}

		if c.Env {
			if err := build.CleanEnv(ctx, eng, t.ID); err != nil {
				return err
			}
		}

		slog.Info("cleaned", "target", t.ID, "env", c.Env)
	}

	return nil
}

// Returns the targets to clean: the named one, or all of them.
func (c *CleanCmd) selectTargets() ([]*target.Target, error) {
	if c.Target != "" {
		t, err := target.Load(RootCmd.Targets, c.Target)
		if err != nil {
			return nil, err
		}
		return []*target.Target{t}, nil
	}
	return target.List(RootCmd.Targets)
}
