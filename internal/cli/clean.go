package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacogips/doxx/internal/app"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the key and template files from the current directory",
	Long: `Remove key.yaml and every .doxt file from the current directory and its
templates directory. The templates directory is removed when nothing else
is left in it.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)

	result, err := app.Clean(appFS, ".")
	for _, path := range result.Removed {
		p.Success(fmt.Sprintf("'%s' removed", path))
	}
	if err != nil {
		return err
	}
	p.Info("Clean complete.")
	return nil
}
