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

// Pack archives srcDir into destPath. The format follows destPath's
// extension and every entry is stored below srcDir's base name, so
// unpacking recreates the directory.
func Pack(fs afero.Fs, srcDir, destPath string) error {
	debug.Debug("[archive] Pack: %s -> %s", srcDir, destPath)

	info, err := fs.Stat(srcDir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrArchiveFailed, "cannot read %s", srcDir)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrArchiveFailed, "%s is not a directory", srcDir)
	}

	format := DetectFormat(destPath)
	if format != FormatTarGz && format != FormatZip {
		return unsupported(destPath)
	}

	out, err := fs.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrArchiveFailed, "cannot create %s", destPath)
	}

	switch format {
	case FormatTarGz:
		err = packTarGz(fs, srcDir, out)
	case FormatZip:
		err = packZip(fs, srcDir, out)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = fs.Remove(destPath)
		return errors.Wrapf(err, errors.ErrArchiveFailed, "failed to pack %s", srcDir)
	}
	return nil
}

// walkEntries visits every directory and regular file below srcDir with its
// slash-separated archive name.
func walkEntries(fs afero.Fs, srcDir string, fn func(path, name string, info os.FileInfo) error) error {
	base := filepath.Base(filepath.Clean(srcDir))
	return afero.Walk(fs, srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		name := base
		if rel != "." {
			name = filepath.ToSlash(filepath.Join(base, rel))
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			debug.Debug("[archive] skipping %s (not a regular file)", path)
			return nil
		}
		return fn(path, name, info)
	})
}

func packTarGz(fs afero.Fs, srcDir string, w io.Writer) error {
	gzw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gzw)

	err = walkEntries(fs, srcDir, func(path, name string, info os.FileInfo) error {
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = name
		if info.IsDir() {
			header.Name += "/"
			return tw.WriteHeader(header)
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		return copyFile(fs, path, tw)
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gzw.Close()
}

func packZip(fs afero.Fs, srcDir string, w io.Writer) error {
	zw := zip.NewWriter(w)

	err := walkEntries(fs, srcDir, func(path, name string, info os.FileInfo) error {
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = name
		if info.IsDir() {
			header.Name += "/"
			_, err := zw.CreateHeader(header)
			return err
		}
		header.Method = zip.Deflate
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		return copyFile(fs, path, entry)
	})
	if err != nil {
		return err
	}
	return zw.Close()
}

func copyFile(fs afero.Fs, path string, w io.Writer) error {
	f, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
