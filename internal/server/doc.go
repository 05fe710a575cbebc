// Package server implements pkgbuilder's daemon mode.
//
// The daemon listens on a Unix domain socket for JSON-encoded commands,
// intended for CI runners that fire build requests at a long-lived
// process instead of spawning the CLI per build. Each connection carries
// a single request-response exchange: the client sends a newline-delimited
// JSON envelope, the server dispatches the command, and writes the result
// back before closing the connection.
//
// Supported commands are building a target, listing targets, querying
// daemon status, and initiating shutdown. Build commands are delegated to
// the build package, which in turn uses the runtime package for container
// operations against containerd.
package server
