package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacogips/doxx/internal/app"
)

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:   "pack DIR",
	Short: "Pack a project directory into an archive",
	Long: `Pack DIR into DIR.tar.gz, or DIR.zip with --zip, for distribution as a
doxx project archive.

Examples:
  doxx pack site
  doxx pack site --zip`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

// unpackCmd represents the unpack command
var unpackCmd = &cobra.Command{
	Use:   "unpack ARCHIVE",
	Short: "Unpack a .tar.gz or .zip archive",
	Long: `Unpack ARCHIVE into the current directory.

Examples:
  doxx unpack site.tar.gz
  doxx unpack site.zip`,
	Args: cobra.ExactArgs(1),
	RunE: runUnpack,
}

var packZip bool

func init() {
	packCmd.Flags().BoolVar(&packZip, FlagZip, false, DescZip)
}

func runPack(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)

	dest, err := app.PackArchive(appFS, args[0], packZip)
	if err != nil {
		return err
	}
	p.Success(fmt.Sprintf("'%s' packed into '%s'", args[0], dest))
	return nil
}

func runUnpack(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)

	root, err := app.UnpackArchive(appFS, args[0], ".")
	if err != nil {
		return err
	}
	p.Success(fmt.Sprintf("'%s' unpacked to '%s'", args[0], root))
	return nil
}
