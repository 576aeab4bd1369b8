// Package config provides configuration loading for phpintel.
//
// Configuration lives in .phpintel/config.yml under the project root and can
// be overridden with PHPINTEL_* environment variables (for example
// PHPINTEL_MATCH_POLICY=subsequence).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Isolation modes for index workers.
const (
	IsolationProcess   = "process"
	IsolationInProcess = "inprocess"
)

// Config represents the complete phpintel configuration.
type Config struct {
	Match    MatchConfig    `yaml:"match" mapstructure:"match"`
	Index    IndexConfig    `yaml:"index" mapstructure:"index"`
	Composer ComposerConfig `yaml:"composer" mapstructure:"composer"`
	PHP      PHPConfig      `yaml:"php" mapstructure:"php"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Watch    WatchConfig    `yaml:"watch" mapstructure:"watch"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
}

// MatchConfig selects how completion patterns are matched.
type MatchConfig struct {
	Policy string `yaml:"policy" mapstructure:"policy"` // "head" or "subsequence"
}

// IndexConfig configures the hierarchy index and its workers.
type IndexConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`             // empty means ~/.phpintel/index/<hash>
	Isolation string `yaml:"isolation" mapstructure:"isolation"` // "process" or "inprocess"
}

// ComposerConfig configures class map generation.
type ComposerConfig struct {
	Binary  string `yaml:"binary" mapstructure:"binary"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

// PHPConfig configures the PHP binary used to list builtins.
type PHPConfig struct {
	Binary string `yaml:"binary" mapstructure:"binary"` // empty disables builtins
}

// PathsConfig defines which files the scanner and watcher consider.
type PathsConfig struct {
	Code   []string `yaml:"code" mapstructure:"code"`
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// CacheConfig configures the parsed-file cache.
type CacheConfig struct {
	Files int `yaml:"files" mapstructure:"files"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Match: MatchConfig{
			Policy: "head",
		},
		Index: IndexConfig{
			Dir:       "",
			Isolation: IsolationProcess,
		},
		Composer: ComposerConfig{
			Binary:  "composer",
			Enabled: true,
		},
		PHP: PHPConfig{
			Binary: "php",
		},
		Paths: PathsConfig{
			Code: []string{
				"**/*.php",
			},
			Ignore: []string{
				".git/**",
				"node_modules/**",
				".phpintel/**",
			},
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Cache: CacheConfig{
			Files: 512,
		},
	}
}

// IndexDir returns the hierarchy index directory for the project at rootDir.
// An explicit index.dir wins; relative values are taken from rootDir.
func (c *Config) IndexDir(rootDir string) (string, error) {
	if c.Index.Dir != "" {
		if filepath.IsAbs(c.Index.Dir) {
			return c.Index.Dir, nil
		}
		return filepath.Join(rootDir, c.Index.Dir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".phpintel", "index", ProjectKey(rootDir)), nil
}

// ProjectKey returns a stable directory name for a project root.
func ProjectKey(rootDir string) string {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		abs = rootDir
	}
	return fmt.Sprintf("%s-%016x", filepath.Base(abs), xxhash.Sum64String(abs))
}
