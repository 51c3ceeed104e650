package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tacogips/doxx/internal/archive"
	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
	"github.com/tacogips/doxx/internal/key"
	"github.com/tacogips/doxx/internal/template/model"
)

const (
	// MaxProjectDepth is how many project archives deep a build may go.
	// A project whose project.yaml names another project is rejected.
	MaxProjectDepth = 1
	// ProjectSpecFile is the key document every project archive carries at
	// its root.
	ProjectSpecFile = "project.yaml"
	// defaultArchiveName is used when a project URL has no usable file name.
	defaultArchiveName = "doxx-project.tar.gz"
)

// buildProject unpacks the project archive next to the key, merges the
// caller's replacements into the archive's project.yaml and builds the
// resulting key one level deeper.
func (s *build) buildProject(ctx context.Context, k *key.Key, t key.ProjectArchive) error {
	if s.depth >= MaxProjectDepth {
		err := errors.Newf(errors.ErrProjectNestingUnsupported,
			"%s: project archives cannot build other project archives", k.SourcePath).
			WithDetail("project", t.Source)
		return err
	}

	s.out.Progress(fmt.Sprintf("Unpacking project '%s'", t.Source))

	root, err := s.unpackProject(ctx, k.Dir(), t.Source)
	if err != nil {
		return err
	}
	debug.DebugValue("[app] Project root", root)

	derived, err := s.deriveKey(k, root)
	if err != nil {
		return err
	}

	return s.Builder.run(ctx, derived, s.depth+1)
}

// unpackProject places the archive contents in keyDir and returns the
// project root. Downloaded archives are always removed afterwards; local
// ones unless project.keep_archive is set.
func (s *build) unpackProject(ctx context.Context, keyDir, source string) (string, error) {
	archivePath := source
	remove := !s.cfg.Project.KeepArchive

	if model.IsURL(source) {
		archivePath = filepath.Join(keyDir, archiveName(source))
		if err := s.fetcher.DownloadBinary(ctx, source, archivePath, s.ioLock); err != nil {
			return "", err
		}
		remove = true
	}

	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	rootDir, err := archive.Unpack(s.fs, archivePath, keyDir)
	if err != nil {
		if model.IsURL(source) {
			_ = s.fs.Remove(archivePath)
		}
		return "", err
	}

	if remove {
		if err := s.fs.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			debug.Debug("[app] could not remove archive %s: %v", archivePath, err)
		}
	}
	return filepath.Join(keyDir, rootDir), nil
}

// deriveKey reads the project's key document and appends the caller's
// replacements to it. The derived key is parsed in memory and its paths
// resolve against the project root.
func (s *build) deriveKey(k *key.Key, root string) (*key.Key, error) {
	specPath := filepath.Join(root, ProjectSpecFile)

	s.ioLock.Lock()
	spec, err := afero.ReadFile(s.fs, specPath)
	s.ioLock.Unlock()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrProjectSpecMissing,
			"unable to find %s in the unpacked project", ProjectSpecFile).
			WithDetail("path", specPath)
	}

	doc, err := key.Derive(spec, k.Replacements)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrKeyMalformed, "cannot merge replacements into %s", specPath)
	}
	debug.Debug("[app] derived key for %s:\n%s", specPath, doc)

	return key.ParseBytes(doc, specPath)
}

// archiveName returns the file name of an archive URL. Names without a
// supported archive extension are treated as gzip compressed tarballs.
func archiveName(url string) string {
	name := urlFileName(url)
	if !archive.IsArchive(name) {
		return defaultArchiveName
	}
	return name
}
