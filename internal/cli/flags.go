package cli

import (
	"os/exec"
	"strings"

	"github.com/tacogips/doxx/internal/debug"
)

// Common flag names and descriptions
const (
	// Flag names
	FlagConfig  = "config"
	FlagDebug   = "debug"
	FlagVerbose = "verbose"
	FlagQuiet   = "quiet"
	FlagNoColor = "no-color"
	FlagZip     = "zip"

	// Flag descriptions
	DescConfig  = "Path to config file (default $XDG_CONFIG_HOME/doxx/config.yaml)"
	DescDebug   = "Enable debug logging"
	DescVerbose = "Verbose output"
	DescQuiet   = "Suppress non-error output"
	DescNoColor = "Disable colored output"
	DescZip     = "Create a .zip archive instead of .tar.gz"
)

// ghAuthToken asks the gh CLI for a token. It is only consulted when no
// token is configured or set in the environment.
func ghAuthToken() string {
	if _, err := exec.LookPath("gh"); err != nil {
		return ""
	}
	out, err := exec.Command("gh", "auth", "token").Output()
	if err != nil {
		debug.Debug("[cli] gh auth token failed: %v", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}
