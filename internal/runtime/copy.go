package runtime

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Creates a directory inside the container, including parents.
func (c *Container) MkdirAll(ctx context.Context, path string) error {
	return c.mustExec(ctx, "mkdir", nil, nil, "mkdir", "-p", path)
}

// Extracts an xz-compressed tar stream into the container's filesystem.
//
// The contents of r are extracted into destDir by piping them to
// "tar xJf - -C destDir" inside the container.
func (c *Container) Extract(ctx context.Context, r io.Reader, destDir string) error {
	return c.mustExec(ctx, "tar extract", r, nil, "tar", "xJf", "-", "-C", destDir)
}

// Copies a path from the container's filesystem as a tar stream.
//
// The file or directory at path is archived by running "tar cf - -C <dir>
// <base>" inside the container and streaming the output to w.
func (c *Container) CopyFrom(ctx context.Context, w io.Writer, path string) error {
	return c.mustExec(ctx, "tar archive", nil, w, "tar", "cf", "-", "-C", filepath.Dir(path), filepath.Base(path))
}

// Expands a glob pattern inside the container.
//
// The pattern is expanded by the container's shell; matches are returned as
// absolute paths. A pattern that matches nothing returns an empty slice, not
// an error. Other ls failures (permissions, missing shell) are reported.
func (c *Container) Glob(ctx context.Context, pattern string) ([]string, error) {
	var stdout bytes.Buffer

	exitCode, stderr, err := c.execCommand(ctx, nil, &stdout, nil, "", "/bin/sh", "-c", "ls -1 -d "+pattern)
	if err != nil {
		return nil, err
	}
	if exitCode != 0 {
		// When nothing matched, the shell passed the unexpanded pattern
		// through and ls complained about the literal path.
		if globNoMatch(stderr) {
			return nil, nil
		}
		return nil, eris.Errorf("glob %q failed with exit code %d (%s)", pattern, exitCode, strings.TrimSpace(stderr))
	}

	var matches []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			matches = append(matches, line)
		}
	}
	return matches, nil
}

// Whether an ls failure means the pattern matched nothing.
//
// Both GNU coreutils and busybox report a nonexistent path as "No such file
// or directory". Anything else (permission denied, shell not found) is a
// real failure.
func globNoMatch(stderr string) bool {
	return strings.Contains(stderr, "No such file or directory")
}

// Helper method that runs a command inside the container, returning an error
// that includes desc if the process exits with a non-zero code.
func (c *Container) mustExec(ctx context.Context, desc string, stdin io.Reader, stdout io.Writer, args ...string) error {
	exitCode, stderr, err := c.execCommand(ctx, stdin, stdout, nil, "", args...)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return eris.Errorf("%s failed with exit code %d (%s)", desc, exitCode, strings.TrimSpace(stderr))
	}
	return nil
}
