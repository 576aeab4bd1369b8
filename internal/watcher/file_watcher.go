// Package watcher turns file saves under a project root into debounced
// batches of changed PHP files.
package watcher

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// fileWatcher implements FileWatcher.
type fileWatcher struct {
	watcher       *fsnotify.Watcher
	root          string
	extensions    map[string]bool
	ignored       func(relPath string) bool
	debounceTime  time.Duration
	callback      func(files []string)
	ctx           context.Context
	cancel        context.CancelFunc
	paused        bool
	pausedMu      sync.RWMutex
	accumulated   map[string]bool
	accumulatedMu sync.Mutex
	debounceTimer *time.Timer
	timerMu       sync.Mutex
	stopOnce      sync.Once
	doneCh        chan struct{}
}

// NewFileWatcher creates a watcher over every non-ignored directory below root.
func NewFileWatcher(root string, opts Options) (FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = []string{".php"}
	}
	extMap := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extMap[ext] = true
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ignored := opts.Ignored
	if ignored == nil {
		ignored = func(string) bool { return false }
	}

	fw := &fileWatcher{
		watcher:      watcher,
		root:         root,
		extensions:   extMap,
		ignored:      ignored,
		debounceTime: debounce,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}

	if err := fw.addDirectoriesRecursively(root); err != nil {
		watcher.Close()
		return nil, err
	}

	return fw, nil
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the file watcher.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// Pause stops firing callbacks but continues accumulating events.
func (fw *fileWatcher) Pause() {
	fw.pausedMu.Lock()
	defer fw.pausedMu.Unlock()
	fw.paused = true
}

// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
func (fw *fileWatcher) Resume() {
	fw.pausedMu.Lock()
	wasPaused := fw.paused
	fw.paused = false
	fw.pausedMu.Unlock()

	if !wasPaused {
		return
	}
	if files := fw.drain(); len(files) > 0 && fw.callback != nil {
		fw.callback(files)
	}
}

// watch is the main event loop.
func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	reindexCh := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.accumulatedMu.Lock()
			fw.accumulated[event.Name] = true
			fw.accumulatedMu.Unlock()

			fw.resetDebounceTimer(reindexCh)

		case <-reindexCh:
			fw.handleDebounceExpired()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: file watcher error: %v", err)
		}
	}
}

func (fw *fileWatcher) handleDebounceExpired() {
	fw.pausedMu.RLock()
	paused := fw.paused
	fw.pausedMu.RUnlock()

	if paused {
		return
	}

	if files := fw.drain(); len(files) > 0 && fw.callback != nil {
		fw.callback(files)
	}
}

// drain returns the accumulated files in sorted order and clears them.
func (fw *fileWatcher) drain() []string {
	fw.accumulatedMu.Lock()
	defer fw.accumulatedMu.Unlock()

	if len(fw.accumulated) == 0 {
		return nil
	}
	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	sort.Strings(files)
	return files
}

// resetDebounceTimer resets the debounce timer, properly stopping the old one.
func (fw *fileWatcher) resetDebounceTimer(reindexCh chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.debounceTimer = time.AfterFunc(fw.debounceTime, func() {
		select {
		case reindexCh <- struct{}{}:
		default:
		}
	})
}

func (fw *fileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}

// shouldProcessEvent keeps writes, creates and removes of monitored,
// non-ignored files.
func (fw *fileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if !fw.extensions[filepath.Ext(event.Name)] {
		return false
	}
	return !fw.isIgnored(event.Name)
}

func (fw *fileWatcher) isIgnored(path string) bool {
	rel, err := filepath.Rel(fw.root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return false
	}
	return fw.ignored(filepath.ToSlash(rel))
}

// addDirectoriesRecursively adds every non-ignored directory in the tree.
func (fw *fileWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}

		if !d.IsDir() {
			return nil
		}
		if fw.isIgnored(path) {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
