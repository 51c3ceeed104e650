// Package key models a doxx key: the build document naming the
// templates or project archive to build and the replacement values to
// render them with.
package key

import (
	"path/filepath"
)

// DefaultFileName is the key file used when none is given.
const DefaultFileName = "key.yaml"

// Metadata field names.
const (
	FieldTemplate    = "template"
	FieldTemplates   = "templates"
	FieldProject     = "project"
	FieldGitHubRepos = "github-repos"
	FieldTextFiles   = "textfiles"
	FieldBinaryFiles = "binaryfiles"
)

// Target is the build target of a key. Exactly one implementation is set
// on every parsed Key.
type Target interface {
	isTarget()
}

// SingleTemplate builds one template on the calling goroutine.
type SingleTemplate struct {
	Path string
}

// MultiTemplate builds every template concurrently.
type MultiTemplate struct {
	Paths []string
}

// ProjectArchive unpacks an archive and builds its project.yaml.
type ProjectArchive struct {
	Source string
}

func (SingleTemplate) isTarget() {}
func (MultiTemplate) isTarget()  {}
func (ProjectArchive) isTarget() {}

// Fetch is one auxiliary remote object to place at a local path.
type Fetch struct {
	// LocalPath is where the object lands, resolved against the key directory.
	LocalPath string
	// Source is a URL. GitHub fetches also accept a repository shortcode.
	Source string
}

// Metadata is the first document of a key.
type Metadata struct {
	Target      Target
	GitHubRepos []Fetch
	TextFiles   []Fetch
	BinaryFiles []Fetch
}

// HasAuxiliary reports whether any auxiliary fetch is requested.
func (m Metadata) HasAuxiliary() bool {
	return len(m.GitHubRepos) > 0 || len(m.TextFiles) > 0 || len(m.BinaryFiles) > 0
}

// Key is a parsed, validated build document. It is not modified after
// Parse returns.
type Key struct {
	Metadata Metadata
	// Replacements maps placeholder names to NFC-normalized text.
	Replacements map[string]string
	// SourcePath is the location of the key document.
	SourcePath string

	noReplacements bool
}

// Dir returns the directory containing the key document.
func (k *Key) Dir() string {
	return filepath.Dir(k.SourcePath)
}

// IsSingleTemplate reports whether the key names one template.
func (k *Key) IsSingleTemplate() bool {
	_, ok := k.Metadata.Target.(SingleTemplate)
	return ok
}

// IsMultiTemplate reports whether the key names a list of templates.
func (k *Key) IsMultiTemplate() bool {
	_, ok := k.Metadata.Target.(MultiTemplate)
	return ok
}

// IsProjectArchive reports whether the key names a project archive.
func (k *Key) IsProjectArchive() bool {
	_, ok := k.Metadata.Target.(ProjectArchive)
	return ok
}

// HasNoReplacements reports whether the key carries no non-empty
// replacement value. Templates of such a key are copied verbatim.
func (k *Key) HasNoReplacements() bool {
	return k.noReplacements
}
