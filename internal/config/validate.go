package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/phpintel/internal/match"
)

var (
	// ErrInvalidMatchPolicy indicates an unknown match policy
	ErrInvalidMatchPolicy = errors.New("invalid match policy")

	// ErrInvalidIsolation indicates an unknown worker isolation mode
	ErrInvalidIsolation = errors.New("invalid worker isolation")

	// ErrInvalidPattern indicates a path glob that does not compile
	ErrInvalidPattern = errors.New("invalid path pattern")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")

	// ErrInvalidDebounce indicates an invalid watch debounce
	ErrInvalidDebounce = errors.New("invalid watch debounce")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := match.New(cfg.Match.Policy); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidMatchPolicy, err))
	}

	switch strings.ToLower(cfg.Index.Isolation) {
	case IsolationProcess, IsolationInProcess:
	default:
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'",
			ErrInvalidIsolation, IsolationProcess, IsolationInProcess, cfg.Index.Isolation))
	}

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if cfg.Cache.Files <= 0 {
		errs = append(errs, fmt.Errorf("%w: files must be positive, got %d", ErrInvalidCacheSettings, cfg.Cache.Files))
	}

	if cfg.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.Watch.DebounceMS))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	for _, pattern := range append(append([]string{}, cfg.Code...), cfg.Ignore...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// Every error stays reachable through errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	verbs := make([]string, len(errs))
	args := make([]any, len(errs))
	for i, err := range errs {
		verbs[i] = "%w"
		args[i] = err
	}

	return fmt.Errorf("validation failed:\n  - "+strings.Join(verbs, "\n  - "), args...)
}
