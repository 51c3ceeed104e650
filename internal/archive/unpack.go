package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
)

// Unpack extracts archivePath into destDir and returns the archive's common
// top-level directory name, or CurrentDir when the entries share none. A
// single gzip file is decompressed into destDir under DecompressedName.
func Unpack(fs afero.Fs, archivePath, destDir string) (string, error) {
	debug.Debug("[archive] Unpack: %s -> %s", archivePath, destDir)

	var (
		root string
		err  error
	)
	switch DetectFormat(archivePath) {
	case FormatTarGz:
		root, err = unpackTarGz(fs, archivePath, destDir)
	case FormatZip:
		root, err = unpackZip(fs, archivePath, destDir)
	case FormatGzip:
		root, err = gunzip(fs, archivePath, destDir)
	default:
		return "", unsupported(archivePath)
	}
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrArchiveFailed) {
			return "", err
		}
		return "", errors.Wrapf(err, errors.ErrArchiveFailed, "failed to unpack %s", archivePath).
			WithDetail("path", archivePath)
	}

	debug.Debug("[archive] Unpack: root directory %q", root)
	return root, nil
}

func unpackTarGz(fs afero.Fs, archivePath, destDir string) (string, error) {
	f, err := fs.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return "", err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	var roots rootTracker
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		// pax global headers carry no file
		if header.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		target, err := SafeJoin(destDir, header.Name)
		if err != nil {
			return "", err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			roots.add(header.Name, true)
			if err := fs.MkdirAll(target, dirMode(header.FileInfo().Mode())); err != nil {
				return "", err
			}
		case tar.TypeReg:
			roots.add(header.Name, false)
			if err := writeEntry(fs, target, tr, fileMode(header.FileInfo().Mode())); err != nil {
				return "", err
			}
		default:
			debug.Debug("[archive] skipping %s (type %c)", header.Name, header.Typeflag)
		}
	}
	return roots.result(), nil
}

func unpackZip(fs afero.Fs, archivePath, destDir string) (string, error) {
	f, err := fs.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return "", err
	}

	var roots rootTracker
	for _, zf := range zr.File {
		target, err := SafeJoin(destDir, zf.Name)
		if err != nil {
			return "", err
		}

		mode := zf.Mode()
		switch {
		case mode.IsDir():
			roots.add(zf.Name, true)
			if err := fs.MkdirAll(target, dirMode(mode)); err != nil {
				return "", err
			}
		case mode.IsRegular():
			roots.add(zf.Name, false)
			rc, err := zf.Open()
			if err != nil {
				return "", err
			}
			err = writeEntry(fs, target, rc, fileMode(mode))
			rc.Close()
			if err != nil {
				return "", err
			}
		default:
			debug.Debug("[archive] skipping %s (mode %s)", zf.Name, mode)
		}
	}
	return roots.result(), nil
}

func gunzip(fs afero.Fs, archivePath, destDir string) (string, error) {
	f, err := fs.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", err
	}
	defer gz.Close()

	target := filepath.Join(destDir, DecompressedName(archivePath))
	if err := writeEntry(fs, target, gz, 0644); err != nil {
		return "", err
	}
	return CurrentDir, nil
}

func writeEntry(fs afero.Fs, target string, r io.Reader, mode os.FileMode) error {
	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func fileMode(m os.FileMode) os.FileMode {
	if perm := m.Perm(); perm != 0 {
		return perm
	}
	return 0644
}

func dirMode(m os.FileMode) os.FileMode {
	if perm := m.Perm(); perm != 0 {
		return perm | 0700
	}
	return 0755
}
