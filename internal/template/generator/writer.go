package generator

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
)

// Writer writes rendered files.
type Writer interface {
	// WriteFile creates missing parent directories and writes content
	// atomically.
	WriteFile(path string, content []byte) error
}

// FileWriter implements Writer on an afero filesystem. Directory creation
// and the write happen under IOLock.
type FileWriter struct {
	FS     afero.Fs
	IOLock sync.Locker
}

// NewFileWriter creates a FileWriter. ioLock may be nil for
// single-threaded use.
func NewFileWriter(fs afero.Fs, ioLock sync.Locker) *FileWriter {
	return &FileWriter{FS: fs, IOLock: ioLock}
}

// WriteFile writes content to path through a temporary file and rename, so
// a failed write never leaves a partial file at path.
func (w *FileWriter) WriteFile(path string, content []byte) error {
	if w.IOLock != nil {
		w.IOLock.Lock()
		defer w.IOLock.Unlock()
	}

	debug.Debug("[generator] Writing file: %s (size: %d bytes)", path, len(content))

	// An empty destination component means the key directory itself.
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := w.FS.MkdirAll(dir, 0755); err != nil {
			return writeFailed(path, "failed to create directory", err)
		}
	}

	tempFile := path + ".tmp"
	f, err := w.FS.OpenFile(tempFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return writeFailed(path, "failed to create temporary file", err)
	}

	_, err = f.Write(content)
	closeErr := f.Close()
	if err != nil {
		_ = w.FS.Remove(tempFile)
		return writeFailed(path, "failed to write file content", err)
	}
	if closeErr != nil {
		_ = w.FS.Remove(tempFile)
		return writeFailed(path, "failed to close file", closeErr)
	}

	if err := w.FS.Rename(tempFile, path); err != nil {
		_ = w.FS.Remove(tempFile)
		return writeFailed(path, "failed to rename temporary file", err)
	}

	debug.Debug("[generator] File written successfully: %s", path)
	return nil
}

func writeFailed(path, message string, cause error) error {
	return errors.Wrapf(cause, errors.ErrWriteFailed, "%s: %s", message, path).
		WithDetail("path", path)
}
