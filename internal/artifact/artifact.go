package artifact

import (
	"os"

	"github.com/rotisserie/eris"
	"pault.ag/go/debian/deb"
	"pault.ag/go/debian/version"
)

var (
	ErrWrongPackage = eris.New("artifact has wrong package name")
	ErrBadVersion   = eris.New("artifact has malformed version")
)

// Control data extracted from a package file.
type Info struct {
	Package      string // Binary package name.
	Version      string // Full Debian version string.
	Architecture string // Package architecture (e.g., "all", "amd64").
}

// Reads the control data from a .deb file.
func Inspect(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open artifact %s", path)
	}
	defer f.Close()

	d, err := deb.Load(f, path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse artifact %s", path)
	}

	return &Info{
		Package:      d.Control.Package,
		Version:      d.Control.Version.String(),
		Architecture: d.Control.Architecture.String(),
	}, nil
}

// Checks the inspected control data against the expected package name.
//
// The version string is additionally required to parse as a valid Debian
// version.
func Verify(info *Info, wantPackage string) error {
	if info.Package != wantPackage {
		return eris.Wrapf(ErrWrongPackage, "got %q, want %q", info.Package, wantPackage)
	}

	if _, err := version.Parse(info.Version); err != nil {
		return eris.Wrapf(ErrBadVersion, "%q: %v", info.Version, err)
	}

	return nil
}
