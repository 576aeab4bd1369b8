package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (PHPINTEL_*)
// 2. Config file (.phpintel/config.yml or .phpintel/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".phpintel")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// PHPINTEL_MATCH_POLICY, PHPINTEL_INDEX_DIR, ...
	v.SetEnvPrefix("PHPINTEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("match.policy")

	v.BindEnv("index.dir")
	v.BindEnv("index.isolation")

	v.BindEnv("composer.binary")
	v.BindEnv("composer.enabled")

	v.BindEnv("php.binary")

	v.BindEnv("watch.debounce_ms")
	v.BindEnv("cache.files")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("match.policy", defaults.Match.Policy)

	v.SetDefault("index.dir", defaults.Index.Dir)
	v.SetDefault("index.isolation", defaults.Index.Isolation)

	v.SetDefault("composer.binary", defaults.Composer.Binary)
	v.SetDefault("composer.enabled", defaults.Composer.Enabled)

	v.SetDefault("php.binary", defaults.PHP.Binary)

	v.SetDefault("paths.code", defaults.Paths.Code)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
	v.SetDefault("cache.files", defaults.Cache.Files)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
