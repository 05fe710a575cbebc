package cli

import (
	"context"
	"fmt"

	"github.com/slurm-tools/pkgbuilder/internal/target"
)

// Represents the 'pkgbuilder targets' command.
type TargetsCmd struct{}

// Executes the targets command.
func (c *TargetsCmd) Run(ctx context.Context) error {
	targets, err := target.List(RootCmd.Targets)
	if err != nil {
		return err
	}

	for _, t := range targets {
		fmt.Printf("%-8s %s (%s)\n", t.ID, t.Name, t.Format)
	}
	return nil
}
