package provider

import (
	"context"

	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/template/model"
)

// TextFetcher retrieves remote text. *remote.Client satisfies it.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// URLLoader fetches templates over HTTP(S). No lock is held across the
// request.
type URLLoader struct {
	Fetcher TextFetcher
}

// NewURLLoader creates a URLLoader.
func NewURLLoader(f TextFetcher) *URLLoader {
	return &URLLoader{Fetcher: f}
}

// Load performs a GET on location. The fetcher normalizes the text the same
// way local reads are normalized.
func (l *URLLoader) Load(ctx context.Context, location string) (model.RawTemplate, error) {
	text, err := l.Fetcher.FetchText(ctx, location)
	if err != nil {
		debug.Debug("[provider] remote fetch failed: %s: %v", location, err)
		return model.RawTemplate{}, unavailable(location, err)
	}
	return model.RawTemplate{Location: location, Text: text}, nil
}
