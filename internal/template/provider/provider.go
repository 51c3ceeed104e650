// Package provider loads raw template documents from the local filesystem
// or over HTTP(S). Loading is the only template stage that performs I/O.
package provider

import (
	"context"

	"github.com/tacogips/doxx/internal/template/model"
)

// Loader retrieves a template document.
//
// A Loader never panics on a missing or unreachable template; it returns a
// TEMPLATE_UNAVAILABLE error for the caller to report.
type Loader interface {
	Load(ctx context.Context, location string) (model.RawTemplate, error)
}
