package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tacogips/doxx/internal/config"
	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/remote"
)

// Global flags
var (
	globalConfigPath string
	globalDebug      bool
	globalVerbose    bool
	globalQuiet      bool
	globalNoColor    bool
)

var (
	// cfg is loaded once per invocation by the root command.
	cfg *config.Config
	// appFS is the filesystem every command works on.
	appFS afero.Fs = afero.NewOsFs()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "doxx",
	Short: "Text file templating build system",
	Long: `doxx builds text files and whole projects from reusable templates.

A key file (key.yaml by default) names the templates to build and the
replacement values for their {{placeholders}}:

  ---
  template: LICENSE.doxt
  ---
  year: 2015
  name: Chris

Templates may be local files, http(s) URLs or project archives
(.tar.gz, .zip) that carry their own project.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&globalConfigPath, FlagConfig, "", DescConfig)
	rootCmd.PersistentFlags().BoolVar(&globalDebug, FlagDebug, false, DescDebug)
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, FlagVerbose, "v", false, DescVerbose)
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, FlagQuiet, "q", false, DescQuiet)
	rootCmd.PersistentFlags().BoolVar(&globalNoColor, FlagNoColor, false, DescNoColor)

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(makeCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(unpackCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration, applies the global flags on top of
// it and configures logging.
func loadConfig(cmd *cobra.Command) error {
	overrides := map[string]interface{}{}
	if globalDebug {
		overrides["log.debug"] = true
	}
	if globalVerbose {
		overrides["output.verbose"] = true
	}
	if globalQuiet {
		overrides["output.quiet"] = true
	}
	if globalNoColor {
		overrides["output.color"] = false
	}

	loaded, err := config.Load(config.LoadOptions{Path: globalConfigPath, Overrides: overrides})
	if err != nil {
		return err
	}
	cfg = loaded

	logFile := ""
	if cfg.Log.File {
		logFile = cfg.Log.Path
		if logFile == "" {
			logFile = debug.DefaultLogFilePath()
		}
	}
	debug.Setup(debug.Options{
		Debug:   cfg.Log.Debug,
		Verbose: cfg.Output.Verbose,
		NoColor: !cfg.Output.Color,
		Output:  cmd.ErrOrStderr(),
		LogFile: logFile,
	})
	debug.DebugValue("[cli] Command", cmd.CommandPath())
	return nil
}

// newClient returns the HTTP client for the current configuration. Without
// a configured token, gh is asked for one on the first authorized request.
func newClient() *remote.Client {
	client := remote.NewClient(cfg, appFS)
	if client.Token == "" {
		client.TokenFunc = ghAuthToken
	}
	return client
}

// printError prints an error message to stderr
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", formatError(err))
}
