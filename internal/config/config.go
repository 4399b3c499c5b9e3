package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the resolved application configuration.
type Config struct {
	// Backend selects how history is read: "cli" (default) or "gogit".
	Backend string `mapstructure:"backend"`
	// MaxCount limits the number of commits read. 0 reads all of them.
	MaxCount int `mapstructure:"max_count"`
	// Jobs bounds concurrent commit diffs. 0 uses GOMAXPROCS.
	Jobs int `mapstructure:"jobs"`
	// Pretty indents the JSON output.
	Pretty bool `mapstructure:"pretty"`
	// Merges is the merge commit policy: "skip" or "reject".
	Merges string `mapstructure:"merges"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// WatchDebounce coalesces bursts of repository events in --watch mode.
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
	// CacheTTL bounds how long diffs stay cached in --watch mode.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// flagKeys maps config keys to the command-line flags that override them.
var flagKeys = map[string]string{
	"backend":   "backend",
	"max_count": "count",
	"jobs":      "jobs",
	"pretty":    "pretty",
	"merges":    "merges",
	"log_level": "log-level",
}

// Load reads configuration from ~/.config/filegrass/config.yaml (or
// TOML/JSON), then FILEGRASS_* environment variables, then any flags in
// flags that were set explicitly.
func Load(flags *pflag.FlagSet) (*Config, error) {
	return load(flags, configDirectory(), ".")
}

func load(flags *pflag.FlagSet, dirs ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	setDefaults(v)

	v.SetEnvPrefix("FILEGRASS")
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is fine; use defaults.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no command can run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendCLI, BackendGoGit:
	default:
		errs = append(errs, fmt.Errorf("backend %q: want %s or %s", c.Backend, BackendCLI, BackendGoGit))
	}
	switch c.Merges {
	case "skip", "reject":
	default:
		errs = append(errs, fmt.Errorf("merges %q: want skip or reject", c.Merges))
	}
	if c.MaxCount < 0 {
		errs = append(errs, fmt.Errorf("max_count %d: must not be negative", c.MaxCount))
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs %d: must not be negative", c.Jobs))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.WatchDebounce < 0 || c.CacheTTL < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", DefaultBackend)
	v.SetDefault("max_count", 0)
	v.SetDefault("jobs", 0)
	v.SetDefault("pretty", false)
	v.SetDefault("merges", DefaultMerges)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("watch_debounce", DefaultWatchDebounce)
	v.SetDefault("cache_ttl", DefaultCacheTTL)
}

func configDirectory() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "filegrass")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "filegrass")
}
