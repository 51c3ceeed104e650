package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers: WorkersConfig{
			TimeoutSeconds:     60,
			RepoTimeoutSeconds: 120,
			MaxConcurrent:      8,
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
			UserAgent:      "doxx",
		},
		GitHub: GitHubConfig{
			DefaultBranch: "master",
			BaseURL:       "https://github.com",
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}

// defaultValues flattens DefaultConfig into koanf keys.
func defaultValues() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"workers.timeout_seconds":      d.Workers.TimeoutSeconds,
		"workers.repo_timeout_seconds": d.Workers.RepoTimeoutSeconds,
		"workers.max_concurrent":       d.Workers.MaxConcurrent,
		"http.timeout_seconds":         d.HTTP.TimeoutSeconds,
		"http.user_agent":              d.HTTP.UserAgent,
		"github.token":                 d.GitHub.Token,
		"github.default_branch":        d.GitHub.DefaultBranch,
		"github.base_url":              d.GitHub.BaseURL,
		"project.keep_archive":         d.Project.KeepArchive,
		"output.color":                 d.Output.Color,
		"output.verbose":               d.Output.Verbose,
		"output.quiet":                 d.Output.Quiet,
		"log.debug":                    d.Log.Debug,
		"log.file":                     d.Log.File,
		"log.path":                     d.Log.Path,
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/doxx/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "doxx", "config.yaml")
}
