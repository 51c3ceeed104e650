package generator

import (
	"io"
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/tacogips/doxx/internal/errors"
)

// Placeholder delimiters.
const (
	StartTag = "{{"
	EndTag   = "}}"
)

// Renderer substitutes replacement values into a template body.
type Renderer interface {
	Render(body string, replacements map[string]string) (string, error)
}

// PlaceholderRenderer replaces exact {{name}} tags. Tags without a matching
// replacement are left in the output unchanged.
type PlaceholderRenderer struct{}

// NewRenderer returns the default renderer.
func NewRenderer() *PlaceholderRenderer {
	return &PlaceholderRenderer{}
}

// Render implements Renderer. A start tag with no closing tag is an error.
func (PlaceholderRenderer) Render(body string, replacements map[string]string) (string, error) {
	if i := strings.LastIndex(body, StartTag); i >= 0 && !strings.Contains(body[i+len(StartTag):], EndTag) {
		return "", errors.Newf(errors.ErrRenderFailed, "unterminated %s tag at offset %d", StartTag, i)
	}
	return fasttemplate.ExecuteFuncStringWithErr(body, StartTag, EndTag, func(w io.Writer, tag string) (int, error) {
		if v, ok := replacements[tag]; ok {
			return io.WriteString(w, v)
		}
		return io.WriteString(w, StartTag+tag+EndTag)
	})
}
