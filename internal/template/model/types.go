package model

import (
	"path"
	"path/filepath"
	"strings"
)

// Template document format.
const (
	// Delimiter separates the ignored preamble, the header and the body.
	// A well-formed document contains it exactly twice.
	Delimiter = "---doxx---"
	// MinBodyLength is the length of the shortest placeholder, {{x}}.
	MinBodyLength = 5
	// TemplateExt is the conventional template file extension.
	TemplateExt = ".doxt"
)

// RawTemplate is the loaded but unparsed template document.
type RawTemplate struct {
	// Location is the local path or http(s) URL the text came from.
	Location string
	// Text is the NFC-normalized document text.
	Text string
}

// Header is the YAML block between the two delimiters.
type Header struct {
	// Extension of the rendered file, with or without the leading dot.
	Extension string `yaml:"extension"`
	// Basename of the rendered file. Defaults to the template's stem.
	Basename string `yaml:"basename"`
	// DestinationDirectory relative to the key directory.
	DestinationDirectory string `yaml:"destination_directory"`
	// Verbatim writes the body without substitution.
	Verbatim bool `yaml:"verbatim"`

	// Fields is the number of keys present in the header mapping.
	// Zero means the document carried no usable header.
	Fields int `yaml:"-"`
}

// IsEmpty reports whether the header had no keys.
func (h Header) IsEmpty() bool {
	return h.Fields == 0
}

// ResolvedTemplate is a validated template with its output location fixed.
type ResolvedTemplate struct {
	Location   string
	Body       string
	Verbatim   bool
	OutputPath string
}

// IsURL reports whether location is an http or https URL.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Resolve computes the output path of a template.
//
// The path is destination/(basename+extension), anchored at keyDir unless
// the destination is absolute.
func Resolve(h Header, body, location, keyDir string) ResolvedTemplate {
	ext := h.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	base := h.Basename
	if base == "" {
		base = Stem(location)
	}

	dest := h.DestinationDirectory
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(keyDir, dest)
	}

	return ResolvedTemplate{
		Location:   location,
		Body:       body,
		Verbatim:   h.Verbatim,
		OutputPath: filepath.Join(dest, base+ext),
	}
}

// Stem returns the file name of location without its extension. For URLs
// the last path segment is used, ignoring any query string.
func Stem(location string) string {
	var name string
	if IsURL(location) {
		trimmed := location
		if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
			trimmed = trimmed[:i]
		}
		name = path.Base(trimmed)
	} else {
		name = filepath.Base(location)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
