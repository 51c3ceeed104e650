package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacogips/doxx/internal/app"
)

// pullCmd represents the pull command
var pullCmd = &cobra.Command{
	Use:   "pull URL",
	Short: "Download a remote template or project archive",
	Long: `Download URL into the current directory.

Archives (.tar.gz, .tgz, .zip) are unpacked and then removed. Any other
file is saved under the last segment of its URL path.

Examples:
  doxx pull https://example.com/templates/LICENSE.doxt
  doxx pull https://example.com/projects/site.tar.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runPull,
}

func runPull(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
	p.Progress(fmt.Sprintf("Pulling %s", args[0]))

	result, err := app.Pull(cmd.Context(), app.PullOptions{
		URL:     args[0],
		Dir:     ".",
		FS:      appFS,
		Fetcher: newClient(),
	})
	if err != nil {
		return err
	}

	if result.Unpacked {
		p.Success(fmt.Sprintf("Unpacked to '%s'", result.Path))
	} else {
		p.Success(fmt.Sprintf("Saved '%s'", result.Path))
	}
	return nil
}
