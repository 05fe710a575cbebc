// Parses flags and dispatches pkgbuilder's subcommands.
//
// The tool exposes the following commands:
//
//	build     Build a package for one OS target.
//	targets   List the available build targets.
//	clean     Remove stale artifacts and cached environments.
//	serve     Run as a daemon accepting build requests over a Unix socket.
//	version   Show version information.
//
// Global flags select the log level (-q, -v, -d) and override build-time
// defaults set via linker flags. After parsing, the global logger is
// reconfigured to reflect the final level before any command runs.
package cli
