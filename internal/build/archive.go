package build

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/ulikunitz/xz"
)

// Directory name the source tree is rooted under inside the archive, and
// therefore under the container's build root after extraction.
const sourcePrefix = "src"

// Directory names excluded from the source archive at any depth.
var archiveExcludes = map[string]bool{
	".git": true,
}

// Archives the project tree at root into a temporary xz-compressed tarball.
//
// All entries are rooted under the "src" prefix. The caller owns the
// returned file and must remove it when done; the orchestrator deletes it
// immediately after the copy into the container.
func archiveSource(root string) (string, error) {
	f, err := os.CreateTemp("", "pkgbuilder-src-*.tar.xz")
	if err != nil {
		return "", eris.Wrap(err, "failed to create temp archive")
	}

	if err := writeArchive(f, root); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", eris.Wrap(err, "failed to close temp archive")
	}

	return f.Name(), nil
}

// Writes the xz-compressed tar stream for the tree at root to w.
func writeArchive(w io.Writer, root string) error {
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return eris.Wrap(err, "failed to create xz writer")
	}

	tw := tar.NewWriter(xzw)

	if err := writeTree(tw, root, sourcePrefix); err != nil {
		return eris.Wrapf(err, "failed to archive %s", root)
	}

	if err := tw.Close(); err != nil {
		return eris.Wrap(err, "failed to finalize tar stream")
	}
	return xzw.Close()
}

// Writes a directory tree to a tar writer rooted at the given archive prefix.
//
// Excluded directories are skipped entirely.
func writeTree(tw *tar.Writer, hostDir, prefix string) error {
	return filepath.WalkDir(hostDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() && archiveExcludes[d.Name()] {
			return filepath.SkipDir
		}

		relPath, err := filepath.Rel(hostDir, path)
		if err != nil {
			return err
		}

		archivePath := filepath.ToSlash(filepath.Join(prefix, relPath))
		return writeTarEntry(tw, path, archivePath, d)
	})
}

// Writes a single file, directory, or symlink entry to a tar writer.
func writeTarEntry(tw *tar.Writer, hostPath, archivePath string, d os.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	link := ""
	if info.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(hostPath); err != nil {
			return err
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	header.Name = archivePath

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	if info.Mode().IsRegular() {
		f, err := os.Open(hostPath)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	}

	return nil
}
