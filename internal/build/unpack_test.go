package build

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestUnpackFiles(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	if err := tw.WriteHeader(&tar.Header{
		Name:     "build",
		Typeflag: tar.TypeDir,
		Mode:     0755,
	}); err != nil {
		t.Fatalf("write dir header: %v", err)
	}

	content := []byte("not really a deb")
	if err := tw.WriteHeader(&tar.Header{
		Name:     "build/slurm-mail_4.22-1_all.deb",
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len(content)),
	}); err != nil {
		t.Fatalf("write file header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("write file body: %v", err)
	}
	tw.Close()

	dest := t.TempDir()

	files, err := unpackFiles(&buf, dest)
	if err != nil {
		t.Fatalf("unpackFiles: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("unpacked %d files, want 1: %v", len(files), files)
	}

	// Entry names are flattened to their base name.
	want := filepath.Join(dest, "slurm-mail_4.22-1_all.deb")
	if files[0] != want {
		t.Fatalf("unpacked path = %q, want %q", files[0], want)
	}

	got, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read unpacked file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("unpacked content = %q, want %q", got, content)
	}
}

func TestUnpackFilesTraversal(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	content := []byte("escape attempt")
	if err := tw.WriteHeader(&tar.Header{
		Name:     "../../escape.deb",
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len(content)),
	}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("write body: %v", err)
	}
	tw.Close()

	dest := t.TempDir()

	files, err := unpackFiles(&buf, dest)
	if err != nil {
		t.Fatalf("unpackFiles: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("unpacked %d files, want 1", len(files))
	}
	if files[0] != filepath.Join(dest, "escape.deb") {
		t.Fatalf("traversal not neutralized, wrote %q", files[0])
	}
}

func TestUnpackStream(t *testing.T) {
	content := []byte("not really a deb")
	dest := t.TempDir()

	files, err := unpackStream(func(w io.Writer) error {
		tw := tar.NewWriter(w)
		if err := tw.WriteHeader(&tar.Header{
			Name:     "slurm-mail_4.22-1_all.deb",
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}); err != nil {
			return err
		}
		if _, err := tw.Write(content); err != nil {
			return err
		}
		return tw.Close()
	}, dest)
	if err != nil {
		t.Fatalf("unpackStream: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("unpacked %d files, want 1: %v", len(files), files)
	}
	if files[0] != filepath.Join(dest, "slurm-mail_4.22-1_all.deb") {
		t.Fatalf("unpacked path = %q", files[0])
	}
}

func TestUnpackStreamFailureUnblocksSender(t *testing.T) {
	senderDone := make(chan struct{})

	// An endless stream of non-tar bytes fails the unpacker on the first
	// header read. The sender must then see a pipe error and return instead
	// of blocking on the write forever.
	_, err := unpackStream(func(w io.Writer) error {
		defer close(senderDone)
		junk := bytes.Repeat([]byte("x"), 1024)
		for {
			if _, err := w.Write(junk); err != nil {
				return err
			}
		}
	}, t.TempDir())
	if err == nil {
		t.Fatal("unpackStream accepted a corrupt stream")
	}

	select {
	case <-senderDone:
	case <-time.After(5 * time.Second):
		t.Fatal("sender still blocked after unpack failure")
	}
}
