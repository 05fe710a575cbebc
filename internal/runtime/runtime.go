package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	goruntime "runtime"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
	"github.com/rotisserie/eris"
)

const (

	// Snapshotter used for container filesystems. fuse-overlayfs provides
	// overlay semantics without requiring root privileges (no mount(2)),
	// allowing pkgbuilder to run as a regular user.
	snapshotter = "fuse-overlayfs"

	// OCI runtime shim for running containers.
	ociRuntime = "io.containerd.runc.v2"
)

// Manages the containerd client and provides image and container operations.
type Engine struct {
	client *containerd.Client // Containerd client for managing containers and images.
}

// Connects to the containerd socket at the given address.
//
// The namespace scopes all containerd operations so pkgbuilder's images and
// containers never collide with other tenants of the daemon. The engine must
// be closed when no longer needed.
func Connect(address, namespace string) (*Engine, error) {
	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to connect to containerd at %s", address)
	}
	return &Engine{client: client}, nil
}

// Closes the containerd client connection.
func (e *Engine) Close() error {
	return e.client.Close()
}

// Imports an OCI archive, tags it under the given name, and unpacks it for
// the host platform.
//
// The archive must contain exactly one image. The layers are unpacked into
// the snapshotter so containers can be created from the tag immediately.
func (e *Engine) ImportImage(ctx context.Context, path, tag string) error {
	source, err := e.importArchive(ctx, path)
	if err != nil {
		return err
	}

	if err := e.tagImage(ctx, source, tag); err != nil {
		return eris.Wrapf(err, "failed to tag image %s", tag)
	}

	if err := e.unpackImage(ctx, tag); err != nil {
		return eris.Wrapf(err, "failed to unpack image %s", tag)
	}

	slog.Debug("image imported", "path", path, "tag", tag)
	return nil
}

// Reports whether an image with the given tag exists in the namespace.
func (e *Engine) HasImage(ctx context.Context, tag string) (bool, error) {
	_, err := e.client.ImageService().Get(ctx, tag)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, eris.Wrap(err, "failed to query image")
	}
	return true, nil
}

// Starts a container from a previously imported image tag.
//
// The container runs detached with a long-running task (sleep infinity) so
// that subsequent Exec calls have a running process to attach to. Any stale
// container with the same ID is removed first.
func (e *Engine) StartContainer(ctx context.Context, tag, id string) (*Container, error) {
	c := &Container{
		client:   e.client,
		id:       id,
		platform: hostPlatform(),
	}

	// Remove any leftover container from an interrupted run with this ID.
	c.remove(ctx)

	image, err := e.resolveImage(ctx, tag)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to resolve image %s", tag)
	}

	ctr, err := c.create(ctx, image)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create container %s", id)
	}

	if err := c.startTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, eris.Wrapf(err, "failed to start container %s", id)
	}

	slog.Debug("container started", "id", id, "image", tag)
	return c, nil
}

// Removes an image tag and all containers created from it.
//
// Containers are discovered by querying containerd for records whose image
// field matches the tag. Each container's task is killed before the container
// and its snapshot are deleted. Missing images are not an error.
func (e *Engine) RemoveImage(ctx context.Context, tag string) error {
	ctrs, err := e.client.Containers(ctx, fmt.Sprintf("image==%s", tag))
	if err != nil {
		return eris.Wrap(err, "failed to list containers")
	}

	for _, ctr := range ctrs {
		if task, taskErr := ctr.Task(ctx, nil); taskErr == nil {
			task.Kill(ctx, syscall.SIGKILL)
			task.Delete(ctx, containerd.WithProcessKill)
		}
		if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
			return eris.Wrapf(err, "failed to delete container %s", ctr.ID())
		}
	}

	if err := e.client.ImageService().Delete(ctx, tag); err != nil && !errdefs.IsNotFound(err) {
		return eris.Wrapf(err, "failed to delete image %s", tag)
	}

	slog.Debug("image removed", "tag", tag)
	return nil
}

// Imports an OCI archive into the content store.
//
// The archive must contain exactly one image (a single manifest, or a single
// OCI index for multi-platform archives).
func (e *Engine) importArchive(ctx context.Context, path string) (images.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return images.Image{}, eris.Wrapf(err, "failed to open archive %s", path)
	}
	defer fh.Close()

	imported, err := e.client.Import(ctx, fh)
	if err != nil {
		return images.Image{}, eris.Wrapf(err, "failed to import archive %s", path)
	}

	// Import returns one record per image in the archive's index.json.
	// Multiple records would mean multiple unrelated images.
	if len(imported) == 0 {
		return images.Image{}, eris.Wrapf(ErrEmptyArchive, "%s", path)
	} else if len(imported) > 1 {
		return images.Image{}, eris.Wrapf(ErrMultipleImages, "%s", path)
	}

	return imported[0], nil
}

// Tags an imported image under a deterministic name.
//
// Updates the tag if it already exists. Removes the source record when its
// name differs from the tag to avoid duplicates.
func (e *Engine) tagImage(ctx context.Context, source images.Image, tag string) error {
	is := e.client.ImageService()

	img := images.Image{
		Name:   tag,
		Target: source.Target,
	}

	if _, err := is.Create(ctx, img); err != nil {
		if !errdefs.IsAlreadyExists(err) {
			return err
		}
		if _, err := is.Update(ctx, img, "target"); err != nil {
			return err
		}
	}

	if source.Name != tag {
		_ = is.Delete(ctx, source.Name)
	}

	return nil
}

// Unpacks the image layers for the host platform into the snapshotter.
func (e *Engine) unpackImage(ctx context.Context, tag string) error {
	image, err := e.resolveImage(ctx, tag)
	if err != nil {
		return err
	}

	return image.Unpack(ctx, snapshotter)
}

// Looks up a tagged image and selects the manifest for the host platform.
func (e *Engine) resolveImage(ctx context.Context, tag string) (containerd.Image, error) {
	p, err := platforms.Parse(hostPlatform())
	if err != nil {
		return nil, err
	}

	img, err := e.client.ImageService().Get(ctx, tag)
	if err != nil {
		return nil, err
	}

	return containerd.NewImageWithPlatform(e.client, img, platforms.Only(p)), nil
}

// Returns the OCI platform for the host architecture.
//
// Package builds always run natively; cross-OS variation comes from the
// target's base image, not from emulated architectures.
func hostPlatform() string {
	return "linux/" + goruntime.GOARCH
}
