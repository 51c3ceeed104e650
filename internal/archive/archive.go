// Package archive packs and unpacks doxx project archives (.tar.gz and .zip).
package archive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tacogips/doxx/internal/errors"
)

// Format identifies an archive encoding.
type Format int

const (
	// FormatUnknown is any unsupported file name.
	FormatUnknown Format = iota
	// FormatTarGz is a gzip compressed tar archive.
	FormatTarGz
	// FormatZip is a zip archive.
	FormatZip
	// FormatGzip is a single gzip compressed file.
	FormatGzip
)

// CurrentDir is returned by Unpack when the archive has no common root.
const CurrentDir = "."

// String returns the conventional file extension of the format.
func (f Format) String() string {
	switch f {
	case FormatTarGz:
		return ".tar.gz"
	case FormatZip:
		return ".zip"
	case FormatGzip:
		return ".gz"
	default:
		return "unknown"
	}
}

// DetectFormat infers the archive format from a file name.
func DetectFormat(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip
	case strings.HasSuffix(lower, ".gz"):
		return FormatGzip
	default:
		return FormatUnknown
	}
}

// IsArchive reports whether name has a supported archive extension.
func IsArchive(name string) bool {
	return DetectFormat(name) != FormatUnknown
}

// DecompressedName returns the name a single gzip file unpacks to.
func DecompressedName(name string) string {
	base := filepath.Base(name)
	if DetectFormat(base) == FormatGzip {
		return base[:len(base)-len(".gz")]
	}
	return base
}

// SafeJoin joins a slash-separated relative name to dest, rejecting names
// that would land outside dest.
func SafeJoin(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrArchiveFailed, "illegal path in archive: %s", name)
	}
	return filepath.Join(dest, clean), nil
}

// entryRoot returns the first path component of an archive entry and whether
// the entry lives below it.
func entryRoot(name string) (string, bool) {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	name = strings.TrimPrefix(name, "/")
	parts := strings.SplitN(name, "/", 2)
	return parts[0], len(parts) == 2 && parts[1] != ""
}

// rootTracker computes the common top-level directory of archive entries.
type rootTracker struct {
	root   string
	common bool
	seen   bool
}

func (r *rootTracker) add(name string, isDir bool) {
	first, nested := entryRoot(name)
	if first == "" || first == "." {
		return
	}
	if !nested && !isDir {
		// A top-level file means there is no common directory.
		r.common = false
		r.seen = true
		return
	}
	switch {
	case !r.seen:
		r.root, r.common, r.seen = first, true, true
	case first != r.root:
		r.common = false
	}
}

func (r *rootTracker) result() string {
	if r.seen && r.common {
		return r.root
	}
	return CurrentDir
}

func unsupported(path string) error {
	return errors.New(errors.ErrArchiveFailed, fmt.Sprintf("unsupported archive format: %s (expected .tar.gz, .tgz, .zip or .gz)", path)).
		WithDetail("path", path)
}
