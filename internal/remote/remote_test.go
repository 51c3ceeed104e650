package remote

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/doxx/internal/config"
	"github.com/tacogips/doxx/internal/errors"
)

func newTestClient(t *testing.T, fs afero.Fs, baseURL string) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.GitHub.BaseURL = baseURL
	cfg.GitHub.DefaultBranch = "main"
	cfg.GitHub.Token = "secret"
	return NewClient(cfg, fs)
}

func TestFetchTextNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "doxx", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"), "plain fetches are not authorized")
		// "e" followed by a combining acute accent
		_, _ = w.Write([]byte("cafe\u0301"))
	}))
	defer srv.Close()

	c := newTestClient(t, afero.NewMemMapFs(), srv.URL)
	text, err := c.FetchText(context.Background(), srv.URL+"/t.doxt")

	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", text)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := newTestClient(t, afero.NewMemMapFs(), srv.URL)
	_, err := c.FetchBinary(context.Background(), srv.URL+"/missing")

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFetchFailed))
	assert.Equal(t, http.StatusNotFound, errors.GetErrorDetails(err)["status"])
}

func TestFetchCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, afero.NewMemMapFs(), srv.URL)
	_, err := c.FetchText(ctx, srv.URL)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFetchFailed))
}

func TestDownloadBinaryAndText(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/logo.png" {
			_, _ = w.Write(payload)
			return
		}
		_, _ = w.Write([]byte("plain text"))
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	c := newTestClient(t, fs, srv.URL)
	var mu sync.Mutex

	require.NoError(t, c.DownloadBinary(context.Background(), srv.URL+"/logo.png", "/out/img/logo.png", &mu))
	require.NoError(t, c.DownloadText(context.Background(), srv.URL+"/notes.txt", "/out/notes.txt", nil))

	got, err := afero.ReadFile(fs, "/out/img/logo.png")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	text, err := afero.ReadFile(fs, "/out/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(text))
}

func TestParseShortcode(t *testing.T) {
	tests := []struct {
		code    string
		want    Repo
		wantErr bool
	}{
		{code: "chrissimpkins/doxx", want: Repo{User: "chrissimpkins", Name: "doxx", Branch: "master"}},
		{code: "user/repo:dev", want: Repo{User: "user", Name: "repo", Branch: "dev"}},
		{code: "user/repo+docs/README.md", want: Repo{User: "user", Name: "repo", Branch: "master", KeepPath: "docs/README.md"}},
		{code: "user/repo:gh-pages+css/", want: Repo{User: "user", Name: "repo", Branch: "gh-pages", KeepPath: "css"}},
		{code: "justuser", wantErr: true},
		{code: "user/repo/extra", wantErr: true},
		{code: "user/repo:", wantErr: true},
		{code: "user/repo+", wantErr: true},
		{code: "user/repo+../outside", wantErr: true},
		{code: "user/repo+docs/../../outside", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := ParseShortcode(tt.code, "master")
			if tt.wantErr {
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArchiveURL(t *testing.T) {
	r := Repo{User: "u", Name: "r", Branch: "main"}
	assert.Equal(t, "https://github.com/u/r/archive/main.tar.gz", r.ArchiveURL("https://github.com/"))
}

func TestParseSource(t *testing.T) {
	r, err := ParseSource("https://example.com/dl/site.zip?x=1", "master")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/dl/site.zip?x=1", r.ArchiveURL("https://github.com"))
	assert.Equal(t, "site.zip", r.archiveFile())

	r, err = ParseSource("https://example.com/download", "master")
	require.NoError(t, err)
	assert.Equal(t, "repo.tar.gz", r.archiveFile())

	r, err = ParseSource("user/repo", "master")
	require.NoError(t, err)
	assert.Equal(t, "user/repo:master", r.String())
}

func repoTarball(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	files := map[string]string{
		"repo-main/README.md":      "readme",
		"repo-main/css/style.css":  "body{}",
		"repo-main/css/reset.css":  "*{}",
		"repo-main/docs/guide.txt": "guide",
	}
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
	return buf.Bytes()
}

func TestPullRepo(t *testing.T) {
	tarball := repoTarball(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/repo/archive/main.tar.gz" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		_, _ = w.Write(tarball)
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := newTestClient(t, afero.NewOsFs(), srv.URL)
	var mu sync.Mutex

	t.Run("whole repository", func(t *testing.T) {
		dest := filepath.Join(dir, "vendor", "repo")
		require.NoError(t, c.PullRepo(context.Background(), "user/repo", dest, &mu))

		data, err := os.ReadFile(filepath.Join(dest, "css", "style.css"))
		require.NoError(t, err)
		assert.Equal(t, "body{}", string(data))
	})

	t.Run("keep directory", func(t *testing.T) {
		dest := filepath.Join(dir, "assets", "css")
		require.NoError(t, c.PullRepo(context.Background(), "user/repo+css", dest, &mu))

		entries, err := os.ReadDir(dest)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("keep file replaces existing", func(t *testing.T) {
		dest := filepath.Join(dir, "README.md")
		require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))
		require.NoError(t, c.PullRepo(context.Background(), "user/repo:main+README.md", dest, &mu))

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "readme", string(data))
	})

	t.Run("missing keep path", func(t *testing.T) {
		err := c.PullRepo(context.Background(), "user/repo+nope", filepath.Join(dir, "nope"), &mu)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFetchFailed))
	})

	t.Run("unknown branch", func(t *testing.T) {
		err := c.PullRepo(context.Background(), "user/repo:other", filepath.Join(dir, "other"), &mu)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFetchFailed))
	})

	leftovers, err := filepath.Glob(filepath.Join(dir, ".doxx-repo-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "staging directories are removed")
}

func TestPullRepoFromURL(t *testing.T) {
	tarball := repoTarball(t)
	var authHeaders []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = w.Write(tarball)
	}))
	defer srv.Close()

	dir := t.TempDir()

	c := newTestClient(t, afero.NewOsFs(), "https://github.invalid")
	dest := filepath.Join(dir, "vendor", "site")
	require.NoError(t, c.PullRepo(context.Background(), srv.URL+"/dl/site.tar.gz", dest, nil))
	data, err := os.ReadFile(filepath.Join(dest, "docs", "guide.txt"))
	require.NoError(t, err)
	assert.Equal(t, "guide", string(data))

	gh := newTestClient(t, afero.NewOsFs(), srv.URL)
	require.NoError(t, gh.PullRepo(context.Background(), srv.URL+"/user/repo/archive/v1.tar.gz", filepath.Join(dir, "v1"), nil))

	assert.Equal(t, []string{"", "token secret"}, authHeaders, "only GitHub URLs carry the token")
}

func TestPullRepoKeepPathCannotEscape(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	outside := filepath.Join(dir, "outside")
	require.NoError(t, os.MkdirAll(outside, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "keep.txt"), []byte("mine"), 0644))

	c := newTestClient(t, afero.NewOsFs(), srv.URL)
	err := c.PullRepo(context.Background(), "user/repo+../outside", filepath.Join(dir, "dest"), nil)

	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.Zero(t, hits)
	assert.FileExists(t, filepath.Join(outside, "keep.txt"))
}

func TestTokenResolvedOnlyForAuthorizedRequests(t *testing.T) {
	tarball := repoTarball(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/plain.txt" {
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte("plain"))
			return
		}
		assert.Equal(t, "token looked-up", r.Header.Get("Authorization"))
		_, _ = w.Write(tarball)
	}))
	defer srv.Close()

	c := newTestClient(t, afero.NewOsFs(), srv.URL)
	c.Token = ""
	calls := 0
	c.TokenFunc = func() string {
		calls++
		return "looked-up"
	}

	_, err := c.FetchText(context.Background(), srv.URL+"/plain.txt")
	require.NoError(t, err)
	assert.Zero(t, calls, "plain fetches never look a token up")

	dir := t.TempDir()
	require.NoError(t, c.PullRepo(context.Background(), "user/repo", filepath.Join(dir, "a"), nil))
	require.NoError(t, c.PullRepo(context.Background(), "user/repo", filepath.Join(dir, "b"), nil))
	assert.Equal(t, 1, calls)
}
