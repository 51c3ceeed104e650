// Package generator renders resolved templates and writes them to disk.
package generator

import (
	"context"

	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
	"github.com/tacogips/doxx/internal/template/model"
)

// Generator performs the render step of a build.
type Generator struct {
	Renderer Renderer
	Writer   Writer
}

// New creates a Generator.
func New(r Renderer, w Writer) *Generator {
	return &Generator{Renderer: r, Writer: w}
}

// RenderAndWrite renders t with replacements and writes the result to
// t.OutputPath. Verbatim templates, and every template of a key without
// replacements, are written byte for byte without calling the renderer.
// Nothing is written when rendering fails.
func (g *Generator) RenderAndWrite(ctx context.Context, t model.ResolvedTemplate, replacements map[string]string, noReplacements bool) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, errors.ErrRenderFailed, "render of %s cancelled", t.Location)
	}

	content := t.Body
	if t.Verbatim || noReplacements {
		debug.Debug("[generator] %s: verbatim copy (verbatim=%t, noReplacements=%t)", t.Location, t.Verbatim, noReplacements)
	} else {
		rendered, err := g.Renderer.Render(t.Body, replacements)
		if err != nil {
			return errors.Wrapf(err, errors.ErrRenderFailed, "failed to render %s", t.Location).
				WithDetail("template", t.Location)
		}
		content = rendered
	}

	return g.Writer.WriteFile(t.OutputPath, []byte(content))
}
