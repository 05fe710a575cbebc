package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "pkgbuilder"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for runtime files (sockets, PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/pkgbuilder or /run/user/<uid>/pkgbuilder
//	macOS:   ~/Library/Caches/pkgbuilder/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, toolName)
	}
	return filepath.Join(xdg.CacheHome, toolName, "run")
}

// Default path to the Unix domain socket used in daemon mode.
func Socket() string {
	return filepath.Join(Runtime(), toolName+".sock")
}

// Default path to the PID file written in daemon mode.
func PIDFile() string {
	return filepath.Join(Runtime(), toolName+".pid")
}

// Path to the cache directory for committed build-environment images.
//
//	Linux:   ~/.cache/pkgbuilder/env
//	macOS:   ~/Library/Caches/pkgbuilder/env
func EnvCache() string {
	return filepath.Join(xdg.CacheHome, toolName, "env")
}

// Path to the cached build-environment archive for a target.
func EnvImage(targetID string) string {
	return filepath.Join(EnvCache(), targetID, "image.tar")
}
