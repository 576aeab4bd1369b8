package batch

import (
	"fmt"

	"github.com/mvp-joe/phpintel/internal/classmap"
	"github.com/mvp-joe/phpintel/internal/hierarchy"
	"github.com/mvp-joe/phpintel/internal/reflection"
)

// indexEnvironment loads each entry's file into a private registry and
// records the class in the hierarchy index.
type indexEnvironment struct {
	registry *reflection.Registry
	indexer  *hierarchy.Indexer
}

// NewIndexEnvironment returns a factory for environments writing to the
// index at indexDir. Each generation gets its own registry.
func NewIndexEnvironment(indexDir string, cacheSize int) EnvironmentFactory {
	return func(job Job) (Environment, error) {
		registry, err := reflection.NewRegistry(
			reflection.NewTreeSitterParser(),
			reflection.WithClassMap(job.Classes),
			reflection.WithCacheSize(cacheSize),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create registry: %w", err)
		}
		return &indexEnvironment{
			registry: registry,
			indexer:  hierarchy.NewIndexer(registry, hierarchy.NewStore(indexDir)),
		}, nil
	}
}

func (e *indexEnvironment) Process(entry classmap.Entry) error {
	if err := e.registry.Load(entry.Path); err != nil {
		return err
	}
	return e.indexer.Update(entry.Class)
}

func (e *indexEnvironment) Close() {
	e.registry.Close()
}
