// Package build orchestrates package builds against the container runtime.
//
// A build runs strictly sequentially: stale artifacts are removed from the
// output directory, the target's build environment is prepared (provisioned
// once and cached as an OCI archive), the source tree is archived to a
// temporary tarball, an ephemeral uniquely-named container is started, the
// archive is copied in and extracted, the target's packaging steps run
// inside the container, the produced package is located by glob and copied
// back out, and the container is destroyed. Teardown is guaranteed on every
// exit path via a deferred Destroy on the container handle; a failure in any
// step aborts the remaining steps but never leaves the container running.
//
// There is no retry logic anywhere. Any transient containerd or I/O failure
// aborts the run.
//
// Example usage:
//
//	result, err := build.Run(ctx, eng, build.Options{
//	    Target: t,
//	    Root:   ".",
//	    Output: "dist",
//	    Clean:  true,
//	})
//	if err != nil {
//	    return err
//	}
package build
