package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	"github.com/slurm-tools/pkgbuilder/internal"
)

// Represents the root command for pkgbuilder.
var RootCmd struct {
	Quiet   bool   `short:"q" help:"Suppress informational output."`
	Verbose bool   `short:"v" help:"Enable verbose output."`
	Debug   bool   `short:"d" help:"Enable debug output."`
	Targets string `short:"t" help:"Directory containing target manifests." default:"targets" placeholder:"DIR"`

	Containerd string `help:"Containerd socket address." default:"/run/containerd/containerd.sock" placeholder:"PATH"`
	Namespace  string `help:"Containerd namespace." default:"pkgbuilder"`

	Build   BuildCmd   `cmd:"" help:"Build a package for one OS target."`
	List    TargetsCmd `cmd:"" name:"targets" help:"List the available build targets."`
	Clean   CleanCmd   `cmd:"" help:"Remove stale artifacts and cached environments."`
	Serve   ServeCmd   `cmd:"" help:"Run as a daemon accepting build requests."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Builds OS packages inside ephemeral containers.\n\nEach target manifest describes a build environment and the packaging steps for one OS release."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags.
//
// Flags override the build-time defaults set via linker flags.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelWarn
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		AddSource:  verbose,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty(os.Stderr),
	})))
}

// Whether the given file is an interactive terminal.
func isatty(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
