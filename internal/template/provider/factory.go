package provider

import (
	"context"
	"sync"

	"github.com/spf13/afero"

	"github.com/tacogips/doxx/internal/template/model"
)

// Dispatcher routes URLs to a remote loader and everything else to a local
// loader.
type Dispatcher struct {
	Local  Loader
	Remote Loader
}

// NewLoader creates the loader used by a build.
func NewLoader(fs afero.Fs, fetcher TextFetcher, ioLock sync.Locker) *Dispatcher {
	return &Dispatcher{
		Local:  NewLocalLoader(fs, ioLock),
		Remote: NewURLLoader(fetcher),
	}
}

// Load implements Loader.
func (d *Dispatcher) Load(ctx context.Context, location string) (model.RawTemplate, error) {
	if model.IsURL(location) {
		return d.Remote.Load(ctx, location)
	}
	return d.Local.Load(ctx, location)
}
