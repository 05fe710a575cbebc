package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/slurm-tools/pkgbuilder/internal"
	"github.com/slurm-tools/pkgbuilder/internal/artifact"
	"github.com/slurm-tools/pkgbuilder/internal/paths"
	"github.com/slurm-tools/pkgbuilder/internal/runtime"
	"github.com/slurm-tools/pkgbuilder/internal/target"
)

// Directory inside the container the source archive is extracted into.
const buildRoot = "/build"

// Controls a single build run.
type Options struct {
	Target      *target.Target // Target to build for.
	Root        string         // Project root to archive. Defaults to the working directory.
	Output      string         // Host directory for the artifact. Defaults to the working directory.
	Clean       bool           // Request a clean build from the packaging steps.
	KeepArchive bool           // Keep the temporary source archive for debugging.
	RefreshEnv  bool           // Discard the cached environment image and reprovision.
}

// Returned after a successful build.
type Result struct {
	Artifact string         // Host path of the produced package file.
	Info     *artifact.Info // Parsed control data (deb targets only).
}

// Executes a package build against the container runtime.
//
// The run is strictly sequential and fail-fast. The build container is
// destroyed on every exit path; the temporary source archive never survives
// the run unless KeepArchive is set.
func Run(ctx context.Context, eng *runtime.Engine, opts Options) (*Result, error) {
	t := opts.Target
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Output == "" {
		opts.Output = "."
	}

	slog.Info("building package",
		"target", t.ID,
		"os", t.Name,
		"package", t.Package,
		"clean", opts.Clean,
	)

	if err := os.MkdirAll(opts.Output, paths.DefaultDirMode); err != nil {
		return nil, eris.Wrapf(err, "failed to create output directory %s", opts.Output)
	}

	if err := CleanArtifacts(opts.Output, t.HostPattern()); err != nil {
		return nil, err
	}

	tag, err := ensureEnv(ctx, eng, t, opts.RefreshEnv)
	if err != nil {
		return nil, err
	}

	archivePath, err := archiveSource(opts.Root)
	if err != nil {
		return nil, err
	}
	slog.Info("source archived", "path", archivePath)

	// The archive is deleted right after the copy into the container; this
	// catches the failure paths in between.
	defer func() {
		if archivePath != "" && !opts.KeepArchive {
			os.Remove(archivePath)
		}
	}()

	ctr, err := eng.StartContainer(ctx, tag, containerID(t.ID))
	if err != nil {
		return nil, err
	}
	defer ctr.Destroy(ctx)

	if err := copyIn(ctx, ctr, archivePath); err != nil {
		return nil, err
	}
	if !opts.KeepArchive {
		os.Remove(archivePath)
		archivePath = ""
	}

	if err := executeSteps(ctx, ctr, t.Packaging, packagingState(t, opts.Clean)); err != nil {
		return nil, eris.Wrapf(err, "packaging failed for %s", t.ID)
	}

	containerPath, err := locateArtifact(ctx, ctr, t.ArtifactGlob)
	if err != nil {
		return nil, err
	}

	hostPath, err := copyOut(ctx, ctr, containerPath, opts.Output)
	if err != nil {
		return nil, err
	}

	info, err := verifyArtifact(t, hostPath)
	if err != nil {
		return nil, err
	}

	slog.Info("package built", "file", filepath.Base(hostPath), "target", t.ID)
	return &Result{Artifact: hostPath, Info: info}, nil
}

// Returns a unique container ID for this run.
//
// The random suffix keeps concurrent invocations (e.g., building several
// targets at once against the same containerd daemon) from colliding.
func containerID(targetID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", internal.Name, targetID, suffix)
}

// Streams the source archive into the container and extracts it under the
// build root.
func copyIn(ctx context.Context, ctr *runtime.Container, archivePath string) error {
	if err := ctr.MkdirAll(ctx, buildRoot); err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return eris.Wrapf(err, "failed to open source archive %s", archivePath)
	}
	defer f.Close()

	return ctr.Extract(ctx, f, buildRoot)
}

// Builds the initial step state for the packaging steps.
//
// Steps run from the extracted source directory and see the target selector
// and clean flag in their environment, mirroring the flags the per-OS
// wrapper scripts used to pass to the inner packaging script.
func packagingState(t *target.Target, clean bool) *stepState {
	state := newStepState()
	state.workdir = buildRoot + "/" + sourcePrefix
	state.env["PKG_TARGET"] = t.ID
	state.env["PKG_SOURCE"] = state.workdir
	state.env["PKG_CLEAN"] = "0"
	if clean {
		state.env["PKG_CLEAN"] = "1"
	}
	return state
}

// Locates the produced package file inside the container.
//
// Exactly one file must match the target's glob: none means the packaging
// steps silently failed, more than one means the glob is too loose to know
// which file to ship.
func locateArtifact(ctx context.Context, ctr *runtime.Container, glob string) (string, error) {
	matches, err := ctr.Glob(ctx, glob)
	if err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", eris.Wrapf(ErrNoArtifact, "glob %q", glob)
	case 1:
		return matches[0], nil
	default:
		return "", eris.Wrapf(ErrTooManyArtifacts, "glob %q matched %v", glob, matches)
	}
}

// Copies the artifact out of the container into the output directory.
//
// The tar stream is piped directly from the container's CopyFrom to the
// host-side unpacker.
func copyOut(ctx context.Context, ctr *runtime.Container, containerPath, output string) (string, error) {
	files, err := unpackStream(func(w io.Writer) error {
		return ctr.CopyFrom(ctx, w, containerPath)
	}, output)
	if err != nil {
		return "", err
	}

	if len(files) != 1 {
		return "", eris.Wrapf(ErrNoArtifact, "copy-out of %s produced %d files", containerPath, len(files))
	}

	return files[0], nil
}

// Pipes a tar stream produced by send into the host-side unpacker.
//
// send runs in its own goroutine writing to the pipe. When the unpacker
// fails mid-stream the read end is closed with the error, so a sender still
// blocked on a pipe write observes the failure and exits instead of leaking.
func unpackStream(send func(w io.Writer) error, destDir string) ([]string, error) {
	pr, pw := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		err := send(pw)
		pw.CloseWithError(err)
		errc <- err
	}()

	files, err := unpackFiles(pr, destDir)
	if err != nil {
		pr.CloseWithError(err)
		return nil, err
	}

	if err := <-errc; err != nil {
		return nil, err
	}

	return files, nil
}

// Checks the copied-out artifact against the target's expectations.
//
// Only deb artifacts carry control data we can parse; other formats pass
// with a size sanity check.
func verifyArtifact(t *target.Target, hostPath string) (*artifact.Info, error) {
	if t.Format != target.FormatDeb {
		info, err := os.Stat(hostPath)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to stat artifact %s", hostPath)
		}
		if info.Size() == 0 {
			return nil, eris.Wrapf(ErrNoArtifact, "%s is empty", hostPath)
		}
		return nil, nil
	}

	info, err := artifact.Inspect(hostPath)
	if err != nil {
		return nil, err
	}

	if err := artifact.Verify(info, t.Package); err != nil {
		return nil, err
	}

	slog.Debug("artifact verified",
		"package", info.Package,
		"version", info.Version,
		"arch", info.Architecture,
	)
	return info, nil
}
