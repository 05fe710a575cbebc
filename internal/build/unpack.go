package build

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/slurm-tools/pkgbuilder/internal/paths"
)

// Unpacks regular files from a tar stream into destDir, returning the host
// paths written.
//
// Entry names are flattened to their base name: the stream comes from the
// container's "tar cf - -C <dir> <base>" and carries at most one level of
// structure, and flattening also prevents path traversal by construction.
// Non-regular entries are skipped.
func unpackFiles(r io.Reader, destDir string) ([]string, error) {
	tr := tar.NewReader(r)

	var written []string
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, eris.Wrap(err, "failed to read artifact stream")
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		dest := filepath.Join(destDir, filepath.Base(header.Name))
		if err := writeFile(dest, tr, header.FileInfo().Mode()); err != nil {
			return written, eris.Wrapf(err, "failed to write %s", dest)
		}
		written = append(written, dest)
	}

	return written, nil
}

// Writes a single file from r, creating parent directories as needed.
func writeFile(dest string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), paths.DefaultDirMode); err != nil {
		return err
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
