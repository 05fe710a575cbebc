package cli

import (
	"context"
	"log/slog"

	"github.com/slurm-tools/pkgbuilder/internal/server"
)

// Represents the 'pkgbuilder serve' command.
type ServeCmd struct {
	Socket string `short:"s" help:"Override the default Unix socket path." placeholder:"PATH"`
	Output string `short:"o" help:"Directory for artifacts of daemon builds." default:"." placeholder:"DIR"`
}

// Executes the serve command.
//
// Starts the daemon on a Unix domain socket and blocks until the context
// is cancelled (e.g. via SIGINT or SIGTERM) or a shutdown command stops
// the server.
func (c *ServeCmd) Run(ctx context.Context) error {
	srv, err := server.New(server.Config{
		SocketPath:          c.Socket,
		ContainerdAddress:   RootCmd.Containerd,
		ContainerdNamespace: RootCmd.Namespace,
		TargetsDir:          RootCmd.Targets,
		Output:              c.Output,
	})
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	slog.Info("pkgbuilder is running")

	stopped := make(chan struct{})
	go func() {
		srv.Wait()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case <-stopped:
		slog.Info("stopped by shutdown command")
	}

	return srv.Stop()
}
