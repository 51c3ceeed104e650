// Package remote retrieves templates, auxiliary files and repository
// archives over HTTP(S).
package remote

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/tacogips/doxx/internal/config"
	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
)

// Client fetches remote objects. Network calls never hold the I/O lock;
// only the local side of a download does.
type Client struct {
	// HTTPClient performs the requests.
	HTTPClient *http.Client
	// FS receives downloaded files.
	FS afero.Fs
	// UserAgent is sent with every request.
	UserAgent string
	// Token authorizes GitHub archive downloads.
	Token string
	// TokenFunc, when Token is empty, is called once on the first
	// authorized request to look a token up.
	TokenFunc func() string
	// GitHubBaseURL is the web root repository archives are pulled from.
	GitHubBaseURL string
	// DefaultBranch is used for shortcodes without a branch.
	DefaultBranch string

	tokenOnce sync.Once
}

// NewClient creates a Client from the configuration.
func NewClient(cfg *config.Config, fs afero.Fs) *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout: cfg.HTTPTimeout(),
		},
		FS:            fs,
		UserAgent:     cfg.HTTP.UserAgent,
		Token:         cfg.GitHub.Token,
		GitHubBaseURL: cfg.GitHub.BaseURL,
		DefaultBranch: cfg.GitHub.DefaultBranch,
	}
}

// FetchText retrieves url as NFC-normalized text.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	data, err := c.get(ctx, url, false)
	if err != nil {
		return "", err
	}
	return norm.NFC.String(string(data)), nil
}

// FetchBinary retrieves url as raw bytes.
func (c *Client) FetchBinary(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url, false)
}

// DownloadText fetches url as text and writes it to dest.
func (c *Client) DownloadText(ctx context.Context, url, dest string, ioLock sync.Locker) error {
	text, err := c.FetchText(ctx, url)
	if err != nil {
		return err
	}
	return c.save(dest, []byte(text), ioLock)
}

// DownloadBinary fetches url and writes the bytes unchanged to dest.
func (c *Client) DownloadBinary(ctx context.Context, url, dest string, ioLock sync.Locker) error {
	data, err := c.FetchBinary(ctx, url)
	if err != nil {
		return err
	}
	return c.save(dest, data, ioLock)
}

func (c *Client) get(ctx context.Context, url string, authorize bool) ([]byte, error) {
	start := time.Now()
	debug.Debug("[remote] GET %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetchFailed, "invalid URL %s", url).
			WithDetail("url", url)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if authorize {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "token "+token)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetchFailed, "unable to pull %s", url).
			WithDetail("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf(errors.ErrFetchFailed, "unable to pull %s (HTTP status code %d)", url, resp.StatusCode).
			WithDetail("url", url).
			WithDetail("status", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetchFailed, "failed reading response from %s", url).
			WithDetail("url", url)
	}

	log := debug.Logger("remote")
	log.Info().Str("url", url).Int("bytes", len(data)).Dur("elapsed", time.Since(start)).Msg("fetched")
	return data, nil
}

func (c *Client) token() string {
	c.tokenOnce.Do(func() {
		if c.Token == "" && c.TokenFunc != nil {
			c.Token = c.TokenFunc()
		}
	})
	return c.Token
}

// save writes data to dest under the I/O lock.
func (c *Client) save(dest string, data []byte, ioLock sync.Locker) error {
	lock(ioLock)
	defer unlock(ioLock)

	if dir := filepath.Dir(dest); dir != "" {
		if err := c.FS.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrWriteFailed, "cannot create directory %s", dir)
		}
	}
	if err := afero.WriteFile(c.FS, dest, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailed, "cannot write %s", dest)
	}
	return nil
}

func lock(l sync.Locker) {
	if l != nil {
		l.Lock()
	}
}

func unlock(l sync.Locker) {
	if l != nil {
		l.Unlock()
	}
}
