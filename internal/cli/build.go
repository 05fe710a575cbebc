package cli

import (
	"context"
	"fmt"

	"github.com/slurm-tools/pkgbuilder/internal/build"
	"github.com/slurm-tools/pkgbuilder/internal/runtime"
	"github.com/slurm-tools/pkgbuilder/internal/target"
)

// Represents the 'pkgbuilder build' command.
type BuildCmd struct {
	Target      string `arg:"" optional:"" default:"ub22" help:"Target identifier (e.g., ub22, rhel9)."`
	Root        string `help:"Project root to archive and build." default:"." placeholder:"DIR"`
	Output      string `short:"o" help:"Directory for the produced package." default:"." placeholder:"DIR"`
	Clean       bool   `short:"c" help:"Request a clean build from the packaging steps."`
	KeepArchive bool   `help:"Keep the temporary source archive for debugging."`
	RefreshEnv  bool   `help:"Discard the cached build environment and reprovision."`
}

// Executes the build command.
//
// Runs the full orchestration for one target: environment preparation,
// source archiving, the in-container packaging steps, and artifact
// copy-out. Prints the final package path on success.
func (c *BuildCmd) Run(ctx context.Context) error {
	t, err := target.Load(RootCmd.Targets, c.Target)
	if err != nil {
		return err
	}

	eng, err := runtime.Connect(RootCmd.Containerd, RootCmd.Namespace)
	if err != nil {
		return err
	}
	defer eng.Close()

	result, err := build.Run(ctx, eng, build.Options{
		Target:      t,
		Root:        c.Root,
		Output:      c.Output,
		Clean:       c.Clean,
		KeepArchive: c.KeepArchive,
		RefreshEnv:  c.RefreshEnv,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Artifact)
	return nil
}
