package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tacogips/doxx/internal/debug"
)

// EnvPrefix is the prefix of environment variable overrides.
// Nested keys are separated by a double underscore, so
// DOXX_WORKERS__MAX_CONCURRENT sets workers.max_concurrent.
const EnvPrefix = "DOXX_"

// LoadOptions selects configuration sources.
type LoadOptions struct {
	// Path is an explicit configuration file. When empty the XDG default
	// is used and a missing file is not an error.
	Path string
	// Overrides are koanf keys applied last, typically from CLI flags.
	Overrides map[string]interface{}
}

// Load builds the configuration from defaults, the config file,
// DOXX_ environment variables and overrides, in that order.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	path := opts.Path
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		debug.Debug("[config] Loading config file: %s", path)
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, newFileError(ConfigInvalid, path, "failed to parse", err)
		}
	} else if explicit {
		return nil, newFileError(ConfigNotFound, path, "file not found", err)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, newFileError(ConfigInvalid, opts.Path, "failed to decode", err)
	}

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = tokenFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Workers.TimeoutSeconds <= 0 {
		return newFieldError("workers.timeout_seconds", "must be positive")
	}
	if c.Workers.RepoTimeoutSeconds <= 0 {
		return newFieldError("workers.repo_timeout_seconds", "must be positive")
	}
	if c.Workers.MaxConcurrent <= 0 {
		return newFieldError("workers.max_concurrent", "must be positive")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return newFieldError("http.timeout_seconds", "must be positive")
	}
	if c.GitHub.DefaultBranch == "" {
		return newFieldError("github.default_branch", "must not be empty")
	}
	if !strings.HasPrefix(c.GitHub.BaseURL, "http://") && !strings.HasPrefix(c.GitHub.BaseURL, "https://") {
		return newFieldError("github.base_url", "must be an http(s) URL")
	}
	return nil
}

func tokenFromEnv() string {
	for _, name := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
