// Package app implements the doxx workflows: the build orchestrator and the
// supporting make, clean, pull, pack and unpack commands.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/afero"

	"github.com/tacogips/doxx/internal/config"
	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
	"github.com/tacogips/doxx/internal/key"
	"github.com/tacogips/doxx/internal/remote"
	"github.com/tacogips/doxx/internal/template/generator"
	"github.com/tacogips/doxx/internal/template/model"
	"github.com/tacogips/doxx/internal/template/parser"
	"github.com/tacogips/doxx/internal/template/provider"
)

// Fetcher performs remote retrieval. *remote.Client implements it.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
	DownloadText(ctx context.Context, url, dest string, ioLock sync.Locker) error
	DownloadBinary(ctx context.Context, url, dest string, ioLock sync.Locker) error
	PullRepo(ctx context.Context, shortcode, dest string, ioLock sync.Locker) error
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// FS is the filesystem templates are read from and written to.
	FS afero.Fs
	// Config supplies worker limits and timeouts.
	Config *config.Config
	// Fetcher retrieves remote templates, files, archives and repositories.
	Fetcher Fetcher
	// Renderer substitutes replacements. Defaults to generator.NewRenderer().
	Renderer generator.Renderer
	// Reporter receives status lines. Defaults to NopReporter.
	Reporter Reporter
}

// Builder runs builds. It holds no per-build state and may be reused.
type Builder struct {
	fs       afero.Fs
	cfg      *config.Config
	fetcher  Fetcher
	renderer generator.Renderer
	reporter Reporter
}

// NewBuilder creates a Builder.
func NewBuilder(opts BuilderOptions) *Builder {
	b := &Builder{
		fs:       opts.FS,
		cfg:      opts.Config,
		fetcher:  opts.Fetcher,
		renderer: opts.Renderer,
		reporter: opts.Reporter,
	}
	if b.fs == nil {
		b.fs = afero.NewOsFs()
	}
	if b.cfg == nil {
		b.cfg = config.DefaultConfig()
	}
	if b.fetcher == nil {
		b.fetcher = remote.NewClient(b.cfg, b.fs)
	}
	if b.renderer == nil {
		b.renderer = generator.NewRenderer()
	}
	if b.reporter == nil {
		b.reporter = NopReporter{}
	}
	return b
}

// build is the state of one Run: its I/O lock, its output lock and the
// collaborators bound to them. Nested project builds get their own.
type build struct {
	*Builder
	ioLock *sync.Mutex
	out    *lockedReporter
	loader provider.Loader
	gen    *generator.Generator
	depth  int
}

func (b *Builder) newBuild(depth int) *build {
	ioLock := &sync.Mutex{}
	return &build{
		Builder: b,
		ioLock:  ioLock,
		out:     newLockedReporter(b.reporter),
		loader:  provider.NewLoader(b.fs, b.fetcher, ioLock),
		gen:     generator.New(b.renderer, generator.NewFileWriter(b.fs, ioLock)),
		depth:   depth,
	}
}

// Run builds k.
//
// Auxiliary fetches run first; their failures are reported and included in
// the returned error but do not stop the template build. A single-template
// or project build stops at the first error. A multi-template build renders
// every template it can and returns BUILD_INCOMPLETE if any failed. Files
// already written are never rolled back.
func (b *Builder) Run(ctx context.Context, k *key.Key) error {
	return b.run(ctx, k, 0)
}

func (b *Builder) run(ctx context.Context, k *key.Key, depth int) error {
	debug.DebugSection("[app] Build start")
	debug.DebugValue("[app] Key", k.SourcePath)
	debug.DebugValue("[app] Depth", depth)

	s := b.newBuild(depth)

	var auxErr error
	if k.Metadata.HasAuxiliary() {
		auxErr = s.fetchAuxiliary(ctx, k.Metadata)
	}

	var err error
	switch t := k.Metadata.Target.(type) {
	case key.SingleTemplate:
		err = s.buildSingle(ctx, k, t.Path)
	case key.MultiTemplate:
		err = s.buildMulti(ctx, k, t.Paths)
	case key.ProjectArchive:
		err = s.buildProject(ctx, k, t)
	default:
		err = errors.Newf(errors.ErrInvalidInput, "key %s has no build target", k.SourcePath)
	}

	debug.Debug("[app] Build finished: %s (err=%v, auxErr=%v)", k.SourcePath, err, auxErr)
	switch {
	case err == nil:
		return auxErr
	case auxErr == nil:
		return err
	default:
		return errors.Wrap(joinErrors([]error{err, auxErr}), errors.GetErrorCode(err), "build failed")
	}
}

// renderTemplate takes one template through load, split, validate, resolve
// and render, returning the written path.
func (s *build) renderTemplate(ctx context.Context, k *key.Key, location string) (string, error) {
	raw, err := s.loader.Load(ctx, location)
	if err != nil {
		return "", err
	}

	header, body := parser.Split(raw)
	if err := parser.Validate(header, body).Err(location); err != nil {
		return "", err
	}

	resolved := model.Resolve(header, body, location, k.Dir())
	debug.Debug("[app] %s -> %s (verbatim=%t)", location, resolved.OutputPath, resolved.Verbatim)

	if err := s.gen.RenderAndWrite(ctx, resolved, k.Replacements, k.HasNoReplacements()); err != nil {
		return "", err
	}
	return resolved.OutputPath, nil
}

func (s *build) buildSingle(ctx context.Context, k *key.Key, location string) error {
	s.out.Progress(fmt.Sprintf("Building '%s'", location))

	out, err := s.renderTemplate(ctx, k, location)
	if err != nil {
		return err
	}
	s.out.Success(fmt.Sprintf("'%s' build ...check!", out))
	return nil
}

func (s *build) buildMulti(ctx context.Context, k *key.Key, locations []string) error {
	s.out.Progress(fmt.Sprintf("Building %d templates", len(locations)))

	jobs := make([]job, 0, len(locations))
	for _, loc := range locations {
		jobs = append(jobs, job{
			name:    loc,
			timeout: s.cfg.WorkerTimeout(),
			run: func(ctx context.Context) (string, error) {
				out, err := s.renderTemplate(ctx, k, loc)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("'%s' build ...check!", out), nil
			},
		})
	}

	if errs := s.runPool(ctx, jobs); len(errs) > 0 {
		return incomplete("templates", len(jobs), errs)
	}
	return nil
}
