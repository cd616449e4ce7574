package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/zstd"
	"github.com/xi2/xz"

	"forge/internal/logger"
)

// entry is one archive member as seen while walking an archive.
type entry struct {
	name string
	dir  bool
	mode fs.FileMode
	open func() (io.ReadCloser, error)
}

// walk calls fn for every directory and regular file in the archive at path.
// Readers handed to fn are only valid until fn returns.
func walk(path string, format Format, fn func(entry) error) error {
	switch format {
	case Zip:
		return walkZip(path, fn)
	case SevenZip:
		return walk7z(path, fn)
	case Tar, TarGz, TarBz2, TarXz, TarZst:
		return walkTar(path, format, fn)
	}
	return fmt.Errorf("unsupported archive format %q", format)
}

func walkTar(path string, format Format, fn func(entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Pick the decompressor for the outer stream; plain tar reads the file as is.
	var r io.Reader = f
	switch format {
	case TarGz:
		gr, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		defer gr.Close()
		r = gr
	case TarBz2:
		r = bzip2.NewReader(f)
	case TarXz:
		xr, err := xz.NewReader(f, 0)
		if err != nil {
			return fmt.Errorf("xz: %w", err)
		}
		r = xr
	case TarZst:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar %s: %w", path, err)
		}

		// Only directories and regular files matter. Symlinks, hard links and
		// devices are skipped so nothing points outside the extraction root.
		switch hdr.Typeflag {
		case tar.TypeDir:
			err = fn(entry{name: strings.TrimSuffix(hdr.Name, "/") + "/", dir: true, mode: 0755})
		case tar.TypeReg:
			err = fn(entry{
				name: hdr.Name,
				mode: hdr.FileInfo().Mode(),
				// The tar reader is positioned at this member until Next is called.
			open: func() (io.ReadCloser, error) { return io.NopCloser(tr), nil },
			})
		default:
			logger.Debug("[DEBUG] Skipping tar member %s (type %c)\n", hdr.Name, hdr.Typeflag)
		}
		if err != nil {
			return err
		}
	}
}

func walkZip(path string, fn func(entry) error) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open zip %s: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		e := entry{name: f.Name, mode: f.Mode(), open: f.Open}
		if f.FileInfo().IsDir() {
			e = entry{name: strings.TrimSuffix(f.Name, "/") + "/", dir: true, mode: 0755}
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func walk7z(path string, fn func(entry) error) error {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open 7z %s: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		e := entry{name: f.Name, mode: f.Mode(), open: f.Open}
		if f.FileInfo().IsDir() {
			e = entry{name: strings.TrimSuffix(f.Name, "/") + "/", dir: true, mode: 0755}
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// List returns the archive's member names, one per entry. Directory names end
// in "/".
func List(path string, format Format) ([]string, error) {
	var names []string
	err := walk(path, format, func(e entry) error {
		names = append(names, e.name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Extract unpacks the archive at path into dest, refusing members that would
// land outside it.
func Extract(path string, format Format, dest string) error {
	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	logger.Debug("[DEBUG] Extracting %s (%s) into %s\n", path, format, root)

	return walk(path, format, func(e entry) error {
		// Zip slip: a member like ../../bin/sh must stay under root after cleaning.
		target := filepath.Join(root, filepath.FromSlash(e.name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive member %q escapes the extraction directory", e.name)
		}

		if e.dir {
			return os.MkdirAll(target, 0755)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		rc, err := e.open()
		if err != nil {
			return fmt.Errorf("open %s: %w", e.name, err)
		}
		defer rc.Close()

		// Keep the archived permissions so executables stay executable. Zip
		// members built on Windows carry none, so fall back to 0644.
		mode := e.mode.Perm()
		if mode == 0 {
			mode = 0644
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			return fmt.Errorf("write %s: %w", target, err)
		}
		return out.Close()
	})
}
