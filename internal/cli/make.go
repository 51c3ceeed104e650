package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tacogips/doxx/internal/app"
	"github.com/tacogips/doxx/internal/key"
)

// makeCmd represents the make command group
var makeCmd = &cobra.Command{
	Use:   "make",
	Short: "Create stub key and template files",
	Long: `Create stub files to start a new key or template from.

Existing files are never overwritten.`,
}

var makeKeyCmd = &cobra.Command{
	Use:   "key [PATH]",
	Short: "Create a stub key file",
	Long: `Create a stub key file at PATH (default key.yaml).

Examples:
  doxx make key
  doxx make key site/key.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMake(cmd, args, key.DefaultFileName, app.MakeKey)
	},
}

var makeTemplateCmd = &cobra.Command{
	Use:   "template [PATH]",
	Short: "Create a stub template file",
	Long: `Create a stub template file at PATH (default stub.doxt).

Examples:
  doxx make template
  doxx make template templates/LICENSE.doxt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMake(cmd, args, app.DefaultStubName, app.MakeTemplate)
	},
}

func init() {
	makeCmd.AddCommand(makeKeyCmd)
	makeCmd.AddCommand(makeTemplateCmd)
}

func runMake(cmd *cobra.Command, args []string, defaultPath string, create func(fs afero.Fs, path string) error) error {
	path := defaultPath
	if len(args) == 1 {
		path = args[0]
	}
	if err := create(appFS, path); err != nil {
		return err
	}
	newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg).Success(fmt.Sprintf("'%s' created", path))
	return nil
}
