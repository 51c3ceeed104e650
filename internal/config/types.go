package config

import "time"

// Config represents the global doxx configuration.
type Config struct {
	// Workers configures the parallel build and fetch workers.
	Workers WorkersConfig `koanf:"workers"`
	// HTTP configures remote template and file retrieval.
	HTTP HTTPConfig `koanf:"http"`
	// GitHub configures repository archive pulls.
	GitHub GitHubConfig `koanf:"github"`
	// Project configures project archive builds.
	Project ProjectConfig `koanf:"project"`
	// Output configures terminal status output.
	Output OutputConfig `koanf:"output"`
	// Log configures diagnostic logging.
	Log LogConfig `koanf:"log"`
}

// WorkersConfig represents worker pool settings.
type WorkersConfig struct {
	// TimeoutSeconds bounds each template or file worker.
	TimeoutSeconds int `koanf:"timeout_seconds"`
	// RepoTimeoutSeconds bounds each GitHub repository worker.
	RepoTimeoutSeconds int `koanf:"repo_timeout_seconds"`
	// MaxConcurrent is the maximum number of workers running at once.
	MaxConcurrent int `koanf:"max_concurrent"`
}

// HTTPConfig represents HTTP client settings.
type HTTPConfig struct {
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `koanf:"timeout_seconds"`
	// UserAgent is sent with every request.
	UserAgent string `koanf:"user_agent"`
}

// GitHubConfig represents GitHub-specific settings.
type GitHubConfig struct {
	// Token is the GitHub personal access token for private repositories.
	Token string `koanf:"token"`
	// DefaultBranch is used when a repository shortcode names no branch.
	DefaultBranch string `koanf:"default_branch"`
	// BaseURL is the GitHub web root archives are downloaded from.
	BaseURL string `koanf:"base_url"`
}

// ProjectConfig represents project archive settings.
type ProjectConfig struct {
	// KeepArchive keeps a local project archive after it is unpacked.
	KeepArchive bool `koanf:"keep_archive"`
}

// OutputConfig represents output and display settings.
type OutputConfig struct {
	// Color enables colored terminal output.
	Color bool `koanf:"color"`
	// Verbose enables info level logging.
	Verbose bool `koanf:"verbose"`
	// Quiet suppresses non-error status output.
	Quiet bool `koanf:"quiet"`
}

// LogConfig represents diagnostic log settings.
type LogConfig struct {
	// Debug enables debug level logging.
	Debug bool `koanf:"debug"`
	// File enables the persistent log file.
	File bool `koanf:"file"`
	// Path overrides the log file location.
	Path string `koanf:"path"`
}

// WorkerTimeout returns the template/file worker timeout.
func (c *Config) WorkerTimeout() time.Duration {
	return time.Duration(c.Workers.TimeoutSeconds) * time.Second
}

// RepoTimeout returns the GitHub repository worker timeout.
func (c *Config) RepoTimeout() time.Duration {
	return time.Duration(c.Workers.RepoTimeoutSeconds) * time.Second
}

// HTTPTimeout returns the per-request HTTP timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
