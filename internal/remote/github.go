package remote

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/tacogips/doxx/internal/archive"
	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
)

// Repo is a parsed GitHub repository shortcode:
//
//	user/repo[:branch][+keep/path]
type Repo struct {
	User   string
	Name   string
	Branch string
	// KeepPath selects a single file or directory inside the repository.
	// Empty means the whole tree.
	KeepPath string
	// URL, when set, is a direct archive URL used instead of a shortcode.
	URL string
}

// ParseShortcode parses a repository shortcode. defaultBranch is used when
// the shortcode names none.
func ParseShortcode(code, defaultBranch string) (Repo, error) {
	var r Repo
	block := strings.TrimSpace(code)

	if i := strings.Index(block, "+"); i >= 0 {
		r.KeepPath = strings.Trim(block[i+1:], "/")
		block = block[:i]
		if r.KeepPath == "" {
			return Repo{}, invalidShortcode(code, "empty keep path after '+'")
		}
		if clean := path.Clean(r.KeepPath); clean == ".." || strings.HasPrefix(clean, "../") {
			return Repo{}, invalidShortcode(code, "keep path leaves the repository")
		}
	}

	r.Branch = defaultBranch
	if i := strings.Index(block, ":"); i >= 0 {
		r.Branch = block[i+1:]
		block = block[:i]
		if r.Branch == "" {
			return Repo{}, invalidShortcode(code, "empty branch after ':'")
		}
	}

	parts := strings.Split(block, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, invalidShortcode(code, "expected user/repo")
	}
	r.User, r.Name = parts[0], parts[1]
	return r, nil
}

func invalidShortcode(code, reason string) error {
	return errors.Newf(errors.ErrInvalidInput, "invalid repository shortcode %q: %s", code, reason).
		WithDetail("shortcode", code)
}

// ParseSource parses a github-repos value: either a shortcode or an
// http(s) URL of a .tar.gz or .zip archive, whose root directory is stripped
// the same way.
func ParseSource(source, defaultBranch string) (Repo, error) {
	source = strings.TrimSpace(source)
	if !isURL(source) {
		return ParseShortcode(source, defaultBranch)
	}
	return Repo{Name: "repo", URL: source}, nil
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ArchiveURL returns the tarball URL of the repository branch, or URL when
// the repository was given as one.
func (r Repo) ArchiveURL(baseURL string) string {
	if r.URL != "" {
		return r.URL
	}
	return fmt.Sprintf("%s/%s/%s/archive/%s.tar.gz", strings.TrimRight(baseURL, "/"), r.User, r.Name, r.Branch)
}

// String returns the shortcode form, or the URL.
func (r Repo) String() string {
	if r.URL != "" {
		return r.URL
	}
	s := r.User + "/" + r.Name + ":" + r.Branch
	if r.KeepPath != "" {
		s += "+" + r.KeepPath
	}
	return s
}

// PullRepo downloads the repository named by source (see ParseSource) and
// places it at localPath. Without a keep path the whole tree, minus the
// archive's root directory, becomes localPath; with one, only that file or
// directory does. An existing localPath is replaced. Only requests to the
// GitHub base URL carry the token.
func (c *Client) PullRepo(ctx context.Context, source, localPath string, ioLock sync.Locker) error {
	repo, err := ParseSource(source, c.DefaultBranch)
	if err != nil {
		return err
	}

	url := repo.ArchiveURL(c.GitHubBaseURL)
	debug.Debug("[remote] PullRepo: %s -> %s (%s)", repo, localPath, url)

	data, err := c.get(ctx, url, c.isGitHub(url))
	if err != nil {
		return err
	}

	lock(ioLock)
	defer unlock(ioLock)
	return c.placeRepo(repo, data, localPath)
}

func (c *Client) placeRepo(repo Repo, data []byte, localPath string) error {
	parent := filepath.Dir(localPath)
	if err := c.FS.MkdirAll(parent, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailed, "cannot create directory %s", parent)
	}

	staging, err := afero.TempDir(c.FS, parent, ".doxx-repo-")
	if err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailed, "cannot create staging directory in %s", parent)
	}
	defer c.FS.RemoveAll(staging)

	archivePath := filepath.Join(staging, repo.archiveFile())
	if err := afero.WriteFile(c.FS, archivePath, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailed, "cannot write %s", archivePath)
	}
	root, err := archive.Unpack(c.FS, archivePath, staging)
	if err != nil {
		return err
	}
	if err := c.FS.Remove(archivePath); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailed, "cannot remove %s", archivePath)
	}

	src := filepath.Join(staging, root)
	if repo.KeepPath != "" {
		if src, err = archive.SafeJoin(src, repo.KeepPath); err != nil {
			return invalidShortcode(repo.String(), "keep path leaves the repository")
		}
		if ok, _ := afero.Exists(c.FS, src); !ok {
			return errors.Newf(errors.ErrFetchFailed, "%s not found in %s", repo.KeepPath, repo).
				WithDetail("shortcode", repo.String())
		}
	}

	if err := c.FS.RemoveAll(localPath); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailed, "cannot replace %s", localPath)
	}
	if err := c.FS.Rename(src, localPath); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailed, "cannot move repository into %s", localPath)
	}
	return nil
}

func (c *Client) isGitHub(url string) bool {
	base := strings.TrimRight(c.GitHubBaseURL, "/")
	return base != "" && strings.HasPrefix(url, base+"/")
}

// archiveFile names the staged download so Unpack can tell its format.
func (r Repo) archiveFile() string {
	if r.URL != "" {
		name := r.URL
		if i := strings.IndexAny(name, "?#"); i >= 0 {
			name = name[:i]
		}
		name = path.Base(name)
		if f := archive.DetectFormat(name); f == archive.FormatTarGz || f == archive.FormatZip {
			return name
		}
	}
	return r.Name + ".tar.gz"
}
