package protocol

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Command identifies the operation requested by an envelope.
type Command string

const (
	CmdBuild    Command = "build"    // Run a package build for a target.
	CmdTargets  Command = "targets"  // List available build targets.
	CmdStatus   Command = "status"   // Query daemon status.
	CmdShutdown Command = "shutdown" // Request daemon shutdown.

	CmdOK    Command = "ok"    // Successful response.
	CmdError Command = "error" // Error response.
)

// Envelope wraps every message exchanged over the daemon socket.
type Envelope struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Requests a package build.
type BuildRequest struct {
	Target     string `json:"target"`                // Target identifier (e.g., "ub22").
	Root       string `json:"root"`                  // Project root to archive and build.
	Output     string `json:"output"`                // Host directory for the artifact.
	Clean      bool   `json:"clean,omitempty"`       // Request a clean build.
	RefreshEnv bool   `json:"refresh_env,omitempty"` // Discard the cached environment image.
}

// Returned after a successful build.
type BuildResult struct {
	Artifact string `json:"artifact"` // Host path of the produced package file.
}

// Describes one available target.
type TargetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Returned for a targets command.
type TargetsResult struct {
	Targets []TargetInfo `json:"targets"`
}

// Returned for a status command.
type StatusResult struct {
	Running bool   `json:"running"`
	Version string `json:"version"`
	Pid     int    `json:"pid"`
	Uptime  string `json:"uptime"`
	Builds  int    `json:"builds"`
}

// Carried by an error response.
type ErrorResult struct {
	Message string `json:"message"`
}

// Serializes a command and payload into an envelope.
func Encode(cmd Command, payload any) ([]byte, error) {
	env := Envelope{Command: cmd}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, eris.Wrap(err, "failed to encode payload")
		}
		env.Payload = raw
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode envelope")
	}
	return data, nil
}

// Parses an envelope, returning the command and the raw payload.
func Decode(data []byte) (Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, nil, eris.Wrap(err, "malformed envelope")
	}
	if env.Command == "" {
		return Envelope{}, nil, eris.New("envelope has no command")
	}
	return env, env.Payload, nil
}

// Parses a typed payload from the raw message of an envelope.
func DecodePayload[T any](raw json.RawMessage) (*T, error) {
	var payload T
	if len(raw) == 0 {
		return nil, eris.New("missing payload")
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, eris.Wrap(err, "malformed payload")
	}
	return &payload, nil
}
