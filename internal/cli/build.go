package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacogips/doxx/internal/app"
	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
	"github.com/tacogips/doxx/internal/key"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [KEY]",
	Short: "Build templates from a key file",
	Long: `Build the templates or project named in a key file.

The key's first YAML document names exactly one of:
  template:  a single template path or URL
  templates: a list of template paths or URLs, built concurrently
  project:   a .tar.gz or .zip project archive path or URL

Optional github-repos, textfiles and binaryfiles maps pull extra files
before the build. The second document holds the replacement values.

If KEY is not specified, key.yaml in the current directory is used.

Examples:
  doxx build
  doxx build site/key.yaml
  doxx build --verbose`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) (err error) {
	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)

	defer func() {
		if r := recover(); r != nil {
			debug.Debug("[cli] build panic: %v", r)
			err = errors.Newf(errors.ErrUnknown, "unexpected failure during build: %v", r)
		}
	}()

	keyPath := key.DefaultFileName
	if len(args) == 1 {
		keyPath = args[0]
	}

	k, err := key.Parse(appFS, keyPath)
	if err != nil {
		return err
	}
	log := debug.Logger("cli")
	log.Info().Str("key", keyPath).Msg("build started")
	if k.HasNoReplacements() && !k.IsProjectArchive() {
		p.Warning(fmt.Sprintf("'%s' has no replacement values; templates are copied unchanged", keyPath))
	}

	builder := app.NewBuilder(app.BuilderOptions{
		FS:       appFS,
		Config:   cfg,
		Fetcher:  newClient(),
		Reporter: p,
	})
	if err := builder.Run(cmd.Context(), k); err != nil {
		return err
	}

	p.Info(fmt.Sprintf("Build of '%s' complete.", keyPath))
	return nil
}
