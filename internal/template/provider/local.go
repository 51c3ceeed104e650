package provider

import (
	"context"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
	"github.com/tacogips/doxx/internal/template/model"
)

// LocalLoader reads templates from a filesystem under the I/O lock.
type LocalLoader struct {
	FS     afero.Fs
	IOLock sync.Locker
}

// NewLocalLoader creates a LocalLoader. ioLock may be nil for
// single-threaded use.
func NewLocalLoader(fs afero.Fs, ioLock sync.Locker) *LocalLoader {
	return &LocalLoader{FS: fs, IOLock: ioLock}
}

// Load reads the file at location and normalizes it to NFC.
func (l *LocalLoader) Load(ctx context.Context, location string) (model.RawTemplate, error) {
	if err := ctx.Err(); err != nil {
		return model.RawTemplate{}, unavailable(location, err)
	}

	data, err := l.read(location)
	if err != nil {
		debug.Debug("[provider] local read failed: %s: %v", location, err)
		return model.RawTemplate{}, unavailable(location, err)
	}

	return model.RawTemplate{Location: location, Text: norm.NFC.String(string(data))}, nil
}

func (l *LocalLoader) read(location string) ([]byte, error) {
	if l.IOLock != nil {
		l.IOLock.Lock()
		defer l.IOLock.Unlock()
	}
	return afero.ReadFile(l.FS, location)
}

func unavailable(location string, cause error) error {
	e := errors.Wrapf(cause, errors.ErrTemplateUnavailable, "unable to load template %s", location).
		WithDetail("template", location)
	if status, ok := errors.GetErrorDetails(cause)["status"]; ok {
		e.WithDetail("status", status)
	}
	return e
}
