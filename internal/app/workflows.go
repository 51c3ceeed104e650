package app

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/tacogips/doxx/internal/archive"
	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
	"github.com/tacogips/doxx/internal/key"
	"github.com/tacogips/doxx/internal/template/model"
)

// TemplatesDir is the conventional directory for a project's templates.
const TemplatesDir = "templates"

// DefaultStubName is the file name used by MakeTemplate when none is given.
const DefaultStubName = "stub" + model.TemplateExt

const keyStub = `---

# enter your build template path or multi-template paths
# then remove or comment out the other field:

template: ***.doxt
templates: [***.doxt, ***.doxt]

---

# Enter the key to your template in YAML syntax below:
`

const templateStub = `Notes for template authors go here. This section is ignored.
---doxx---
# extension: txt
# basename: stub
# destination_directory: .
# verbatim: false
extension: txt
---doxx---
Replace this text with the template body. Use {{name}} placeholders for
values defined in the second document of your key.
`

// MakeKey writes a stub key document to path, which must not exist.
func MakeKey(fs afero.Fs, path string) error {
	if path == "" {
		path = key.DefaultFileName
	}
	return writeStub(fs, path, keyStub)
}

// MakeTemplate writes a stub template document to path, which must not
// exist.
func MakeTemplate(fs afero.Fs, path string) error {
	if path == "" {
		path = DefaultStubName
	}
	return writeStub(fs, path, templateStub)
}

func writeStub(fs afero.Fs, path, content string) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailed, "cannot check %s", path)
	}
	if exists {
		return errors.Newf(errors.ErrInvalidInput, "%s already exists", path).
			WithDetail("path", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrWriteFailed, "cannot create directory %s", dir)
		}
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailed, "cannot write %s", path).
			WithDetail("path", path)
	}
	debug.Debug("[app] wrote stub %s", path)
	return nil
}

// CleanResult lists what Clean removed.
type CleanResult struct {
	// Removed holds the removed paths, relative to the cleaned directory.
	Removed []string
}

// Clean removes the key file and template files from dir and its templates
// directory. The templates directory itself is removed once it is empty.
func Clean(fs afero.Fs, dir string) (*CleanResult, error) {
	result := &CleanResult{}

	remove := func(rel string) error {
		if err := fs.Remove(filepath.Join(dir, rel)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrWriteFailed, "unable to remove %s", rel).
				WithDetail("path", rel)
		}
		result.Removed = append(result.Removed, rel)
		return nil
	}

	if ok, _ := afero.Exists(fs, filepath.Join(dir, key.DefaultFileName)); ok {
		if err := remove(key.DefaultFileName); err != nil {
			return result, err
		}
	}

	for _, sub := range []string{".", TemplatesDir} {
		names, err := templateFiles(fs, filepath.Join(dir, sub))
		if err != nil {
			return result, err
		}
		for _, name := range names {
			if err := remove(filepath.Join(sub, name)); err != nil {
				return result, err
			}
		}
	}

	templates := filepath.Join(dir, TemplatesDir)
	if isDir, _ := afero.DirExists(fs, templates); isDir {
		if empty, err := afero.IsEmpty(fs, templates); err == nil && empty {
			if err := remove(TemplatesDir); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

func templateFiles(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot list %s", dir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), model.TemplateExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// PullOptions contains options for Pull.
type PullOptions struct {
	// URL is the http(s) source.
	URL string
	// Dir is where the file lands or the archive is unpacked.
	Dir string
	// FS is the local filesystem.
	FS afero.Fs
	// Fetcher performs the download.
	Fetcher Fetcher
}

// PullResult describes what Pull placed on disk.
type PullResult struct {
	// Path is the downloaded file, or the unpacked root for archives.
	Path string
	// Unpacked is true when the source was an archive.
	Unpacked bool
}

// Pull downloads a remote file into Dir. Archives are unpacked and then
// removed; anything else is saved as text under its URL file name.
func Pull(ctx context.Context, opts PullOptions) (*PullResult, error) {
	if !model.IsURL(opts.URL) {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"%s is not a URL; include the http:// or https:// protocol", opts.URL)
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}

	name := urlFileName(opts.URL)
	if !archive.IsArchive(name) {
		if name == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, "%s does not name a file", opts.URL)
		}
		dest := filepath.Join(opts.Dir, name)
		if err := opts.Fetcher.DownloadText(ctx, opts.URL, dest, nil); err != nil {
			return nil, err
		}
		return &PullResult{Path: dest}, nil
	}

	archivePath := filepath.Join(opts.Dir, name)
	if err := opts.Fetcher.DownloadBinary(ctx, opts.URL, archivePath, nil); err != nil {
		return nil, err
	}
	defer func() {
		if err := opts.FS.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			debug.Debug("[app] could not remove %s: %v", archivePath, err)
		}
	}()

	root, err := archive.Unpack(opts.FS, archivePath, opts.Dir)
	if err != nil {
		return nil, err
	}
	if archive.DetectFormat(name) == archive.FormatGzip {
		root = archive.DecompressedName(name)
	}
	return &PullResult{Path: filepath.Join(opts.Dir, root), Unpacked: true}, nil
}

// urlFileName returns the last path segment of url, or the default project
// archive name when the URL ends in a slash.
func urlFileName(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	if strings.HasSuffix(url, "/") {
		return defaultArchiveName
	}
	name := path.Base(url)
	if name == "." || name == "/" || strings.HasSuffix(name, ":") {
		return ""
	}
	return name
}

// PackArchive packs dir into dir.tar.gz, or dir.zip when zip is set, and
// returns the archive path.
func PackArchive(fs afero.Fs, dir string, zip bool) (string, error) {
	dir = filepath.Clean(dir)
	if base := filepath.Base(dir); base == "." || base == ".." || base == string(filepath.Separator) {
		return "", errors.Newf(errors.ErrInvalidInput, "cannot pack %s: name the directory to pack", dir)
	}
	format := archive.FormatTarGz
	if zip {
		format = archive.FormatZip
	}
	dest := dir + format.String()
	if err := archive.Pack(fs, dir, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// UnpackArchive unpacks a local archive into dest and returns the root
// directory it created, or dest when the archive had no common root.
func UnpackArchive(fs afero.Fs, archivePath, dest string) (string, error) {
	if ok, _ := afero.Exists(fs, archivePath); !ok {
		return "", errors.Newf(errors.ErrInvalidInput, "%s does not exist", archivePath).
			WithDetail("path", archivePath)
	}
	root, err := archive.Unpack(fs, archivePath, dest)
	if err != nil {
		return "", err
	}
	return filepath.Join(dest, root), nil
}
