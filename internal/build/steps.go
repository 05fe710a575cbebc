package build

import (
	"context"
	"log/slog"

	"github.com/rotisserie/eris"
	"github.com/slurm-tools/pkgbuilder/internal/runtime"
	"github.com/slurm-tools/pkgbuilder/internal/target"
)

// Executes a list of manifest steps in order against the build container.
func executeSteps(ctx context.Context, ctr *runtime.Container, steps []target.Step, state *stepState) error {
	for i, step := range steps {
		if err := executeStep(ctx, ctr, step, state); err != nil {
			return eris.Wrapf(err, "step %d", i+1)
		}
	}
	return nil
}

// Executes a single step, dispatching to command execution or state
// mutation depending on the step's fields.
func executeStep(ctx context.Context, ctr *runtime.Container, step target.Step, state *stepState) error {
	if step.Run == "" {
		// Standalone modifier(s): persist in state.
		state.apply(step)
		return nil
	}

	resolved := state.resolve(step)

	if resolved.workdir != "" {
		if err := ctr.MkdirAll(ctx, resolved.workdir); err != nil {
			return err
		}
	}

	slog.Debug("run", "command", step.Run, "shell", resolved.shell, "workdir", resolved.workdir)

	result, err := ctr.Exec(ctx, resolved.shell, step.Run, resolved.environ(), resolved.workdir)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return eris.Wrapf(ErrCommandFailed, "exit code %d: %s", result.ExitCode, result.Stderr)
	}

	return nil
}
