// Package service wires the resolvers, the hierarchy index and the batch
// supervisor for one project and exposes the queries the transports serve.
package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/mvp-joe/phpintel/internal/batch"
	"github.com/mvp-joe/phpintel/internal/classmap"
	"github.com/mvp-joe/phpintel/internal/config"
	"github.com/mvp-joe/phpintel/internal/hierarchy"
	"github.com/mvp-joe/phpintel/internal/match"
	"github.com/mvp-joe/phpintel/internal/reflection"
	"github.com/mvp-joe/phpintel/internal/source"
	"github.com/mvp-joe/phpintel/internal/symbols"
)

// Service answers queries about one PHP project.
type Service struct {
	root      string
	cfg       *config.Config
	registry  *reflection.Registry
	types     *source.Resolver
	symbols   *symbols.Resolver
	store     *hierarchy.Store
	indexer   *hierarchy.Indexer
	generator *classmap.Auto
	scanner   *classmap.Scanner
	worker    batch.Worker

	// indexMu serializes index runs; there is only ever one index writer.
	indexMu sync.Mutex

	classesMu sync.Mutex
	classes   map[string]string
}

// Option configures a Service.
type Option func(*options)

type options struct {
	worker   batch.Worker
	builtins *reflection.Builtins
	classes  []classmap.Entry
}

// WithWorker overrides the worker selected by index.isolation.
func WithWorker(w batch.Worker) Option {
	return func(o *options) { o.worker = w }
}

// WithBuiltins supplies interpreter builtins instead of asking php.binary.
func WithBuiltins(b *reflection.Builtins) Option {
	return func(o *options) { o.builtins = b }
}

// WithClassMap supplies the initial class map instead of reading it from disk.
func WithClassMap(entries []classmap.Entry) Option {
	return func(o *options) { o.classes = entries }
}

// New creates a service for the project at root.
func New(ctx context.Context, root string, cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	matcher, err := match.New(cfg.Match.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher: %w", err)
	}

	indexDir, err := cfg.IndexDir(root)
	if err != nil {
		return nil, err
	}

	parser := reflection.NewTreeSitterParser()

	scanner, err := classmap.NewScanner(root, cfg.Paths.Code, cfg.Paths.Ignore, parser)
	if err != nil {
		return nil, err
	}
	generator := &classmap.Auto{Scanner: scanner}
	if cfg.Composer.Enabled && cfg.Composer.Binary != "" {
		generator.Composer = classmap.NewComposer(root, cfg.Composer.Binary)
	}

	entries := o.classes
	if entries == nil {
		entries, err = generator.Cached(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build class map: %w", err)
		}
	}

	builtins := o.builtins
	if builtins == nil && cfg.PHP.Binary != "" {
		builtins, err = reflection.LoadBuiltins(ctx, cfg.PHP.Binary)
		if err != nil {
			log.Printf("Warning: builtin functions unavailable: %v", err)
		}
	}

	regOpts := []reflection.Option{
		reflection.WithClassMap(classmap.Map(entries)),
		reflection.WithCacheSize(cfg.Cache.Files),
	}
	if builtins != nil {
		regOpts = append(regOpts, reflection.WithBuiltins(builtins))
	}
	registry, err := reflection.NewRegistry(parser, regOpts...)
	if err != nil {
		return nil, err
	}

	for _, path := range generator.Files() {
		if err := registry.Load(path); err != nil {
			log.Printf("Warning: failed to load autoloaded file: %v", err)
		}
	}

	types := source.NewResolver(source.LineExtractor{})
	store := hierarchy.NewStore(indexDir)

	worker := o.worker
	if worker == nil {
		worker, err = newWorker(cfg, indexDir)
		if err != nil {
			registry.Close()
			return nil, err
		}
	}

	return &Service{
		root:      root,
		cfg:       cfg,
		registry:  registry,
		types:     types,
		symbols:   symbols.NewResolver(registry, types, matcher),
		store:     store,
		indexer:   hierarchy.NewIndexer(registry, store),
		generator: generator,
		scanner:   scanner,
		worker:    worker,
		classes:   classmap.Map(entries),
	}, nil
}

// newWorker selects the worker for index.isolation.
func newWorker(cfg *config.Config, indexDir string) (batch.Worker, error) {
	if cfg.Index.Isolation == config.IsolationInProcess {
		return batch.NewInProcessWorker(batch.NewIndexEnvironment(indexDir, cfg.Cache.Files)), nil
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable for index workers: %w", err)
	}
	return &batch.ProcessWorker{
		Path:   exe,
		Args:   WorkerArgs(indexDir, cfg.Cache.Files),
		Stderr: os.Stderr,
	}, nil
}

// WorkerArgs returns the command line that starts an index worker process.
func WorkerArgs(indexDir string, cacheFiles int) []string {
	return []string{"worker", "--index-dir", indexDir, "--cache-files", strconv.Itoa(cacheFiles)}
}

// Close releases the registry.
func (s *Service) Close() {
	s.registry.Close()
}

// Root returns the project root.
func (s *Service) Root() string {
	return s.root
}

// IndexDir returns the hierarchy index directory.
func (s *Service) IndexDir() string {
	return s.store.Root()
}

// Config returns the loaded configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}
