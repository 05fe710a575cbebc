// Package target loads and validates per-OS build target manifests.
//
// A target describes everything the orchestrator needs to build a package
// for one OS release: the base image archive for the build environment,
// the provisioning steps that install build dependencies, the packaging
// steps that produce the artifact, and the glob used to locate the
// artifact inside the container.
//
// Targets are plain YAML files named <id>.yaml in a targets directory:
//
//	id: ub22
//	name: Ubuntu 22.04
//	from: images/ubuntu-22.04.tar
//	package: slurm-mail
//	format: deb
//	artifact_glob: /build/src/build/*.deb
//	setup:
//	  - run: apt-get update
//	packaging:
//	  - run: ./build-tools/build.sh
package target
