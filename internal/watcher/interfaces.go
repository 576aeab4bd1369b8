package watcher

import (
	"context"
	"time"
)

// FileWatcher monitors PHP sources for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching, calling callback with debounced, sorted file paths.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// Options configures a file watcher.
type Options struct {
	// Extensions to monitor. Defaults to ".php".
	Extensions []string

	// Debounce is the quiet period before the callback fires. Zero selects
	// DefaultDebounce.
	Debounce time.Duration

	// Ignored reports whether a path relative to the watched root is skipped.
	// Ignored directories are not watched at all.
	Ignored func(relPath string) bool
}
