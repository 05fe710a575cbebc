package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/slurm-tools/pkgbuilder/internal"
	"github.com/slurm-tools/pkgbuilder/internal/build"
	"github.com/slurm-tools/pkgbuilder/internal/protocol"
	"github.com/slurm-tools/pkgbuilder/internal/target"
)

// Handles a build command.
//
// Builds are serialized: the shared output directory and the environment
// cache are not safe for concurrent runs of the same target, so the daemon
// runs one build at a time.
func (s *Server) handleBuild(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.BuildRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	t, err := target.Load(s.targetsDir, req.Target)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	output := req.Output
	if output == "" {
		output = s.output
	}

	s.mu.Lock()
	result, err := build.Run(ctx, s.engine, build.Options{
		Target:     t,
		Root:       req.Root,
		Output:     output,
		Clean:      req.Clean,
		RefreshEnv: req.RefreshEnv,
	})
	if err == nil {
		s.builds++
	}
	s.mu.Unlock()

	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	s.respond(conn, protocol.CmdOK, &protocol.BuildResult{Artifact: result.Artifact})
}

// Handles a targets command.
func (s *Server) handleTargets(conn net.Conn) {
	targets, err := target.List(s.targetsDir)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	result := &protocol.TargetsResult{}
	for _, t := range targets {
		result.Targets = append(result.Targets, protocol.TargetInfo{ID: t.ID, Name: t.Name})
	}

	s.respond(conn, protocol.CmdOK, result)
}

// Handles a status command.
func (s *Server) handleStatus(conn net.Conn) {
	s.mu.Lock()
	builds := s.builds
	s.mu.Unlock()

	uptime := time.Since(s.startedAt).Truncate(time.Second)

	s.respond(conn, protocol.CmdOK, &protocol.StatusResult{
		Running: true,
		Version: internal.VersionString(),
		Pid:     os.Getpid(),
		Uptime:  uptime.String(),
		Builds:  builds,
	})
}

// Handles a shutdown command.
func (s *Server) handleShutdown(conn net.Conn) {
	s.respond(conn, protocol.CmdOK, nil)
	slog.Info("shutdown requested")

	go func() {
		s.Stop()
	}()
}
