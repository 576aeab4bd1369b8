package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mvp-joe/phpintel/internal/batch"
	"github.com/mvp-joe/phpintel/internal/classmap"
	"github.com/mvp-joe/phpintel/internal/watcher"
)

// Index regenerates the class map and rebuilds the hierarchy index for every
// class in it.
func (s *Service) Index(ctx context.Context, progress batch.Progress) (*batch.Stats, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	return s.supervisor(progress).Index(ctx)
}

// refreshingGenerator publishes every regenerated class map to the service
// before the supervisor indexes it.
type refreshingGenerator struct {
	s *Service
}

func (g refreshingGenerator) Generate(ctx context.Context) ([]classmap.Entry, error) {
	entries, err := g.s.generator.Generate(ctx)
	if err != nil {
		return nil, err
	}

	classes := classmap.Map(entries)
	g.s.classesMu.Lock()
	g.s.classes = classes
	g.s.classesMu.Unlock()
	g.s.registry.SetClassMap(classes)
	return entries, nil
}

func (s *Service) supervisor(progress batch.Progress) *batch.Supervisor {
	return batch.NewSupervisor(refreshingGenerator{s: s}, s.worker, progress)
}

// Reindex indexes the classes declared in files. Files that no longer exist
// or fall outside the configured code paths are skipped; when nothing is left
// Reindex returns nil stats.
func (s *Service) Reindex(ctx context.Context, files []string, progress batch.Progress) (*batch.Stats, error) {
	var entries []classmap.Entry
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil || !s.scanner.Discovery().Matches(filepath.ToSlash(rel)) {
			continue
		}
		entries = append(entries, s.scanner.Entries(path)...)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	s.classesMu.Lock()
	for _, e := range entries {
		s.classes[e.Class] = e.Path
		s.registry.AddClassMapEntry(e.Class, e.Path)
	}
	classes := copyMap(s.classes)
	s.classesMu.Unlock()

	return s.supervisor(progress).Run(ctx, batch.Job{
		Classes: classes,
		Batch:   entries,
	})
}

// Watch reindexes saved files until ctx is cancelled.
func (s *Service) Watch(ctx context.Context, progress batch.Progress) error {
	w, err := watcher.NewFileWatcher(s.root, watcher.Options{
		Debounce: time.Duration(s.cfg.Watch.DebounceMS) * time.Millisecond,
		Ignored:  s.scanner.Discovery().Ignored,
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Stop()

	err = w.Start(ctx, func(files []string) {
		stats, err := s.Reindex(ctx, files, progress)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("Warning: failed to reindex %d changed files: %v", len(files), err)
			}
			return
		}
		if stats != nil && len(stats.Lost) > 0 {
			log.Printf("Warning: [run %s] classes not indexed: %v", stats.RunID, stats.Lost)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	<-ctx.Done()
	return nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
