// Package runtime manages build containers backed by containerd.
//
// An [Engine] connects to a containerd daemon and provides image import,
// image removal, and container creation. Build-environment OCI archives
// are imported, tagged, unpacked for the host platform, and used to
// create containers with overlayfs snapshots.
//
// Each [Container] wraps a running containerd task. Commands can be
// executed inside the container, source archives can be streamed in and
// artifacts streamed out as tar streams, and a provisioned filesystem can
// be committed back to an OCI archive for reuse. When the container is no
// longer needed it must be destroyed to release its snapshot and task
// resources; Destroy is safe to call from a defer on every exit path.
//
// Example usage:
//
//	eng, err := runtime.Connect("/run/containerd/containerd.sock", "pkgbuilder")
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	if err := eng.ImportImage(ctx, "ubuntu-22.04.tar", tag); err != nil {
//	    return err
//	}
//
//	ctr, err := eng.StartContainer(ctx, tag, "pkgbuilder-ub22-3f2a9c1d")
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
//
//	result, err := ctr.Exec(ctx, "/bin/sh", "make package", nil, "/build/src")
package runtime
