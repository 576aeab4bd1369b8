package batch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mvp-joe/phpintel/internal/classmap"
)

// Progress receives index progress. Calls are fire-and-forget.
type Progress interface {
	Open(total int)
	Increment()
	Close()
}

// NopProgress discards progress.
type NopProgress struct{}

func (NopProgress) Open(int)   {}
func (NopProgress) Increment() {}
func (NopProgress) Close()     {}

// Stats summarizes an index run.
type Stats struct {
	RunID       string        `json:"run_id"`
	Entries     int           `json:"entries"`
	Generations int           `json:"generations"`
	Lost        []string      `json:"lost"`
	Duration    time.Duration `json:"duration"`
}

// Supervisor runs worker generations one at a time until the batch is empty.
type Supervisor struct {
	generator classmap.Generator
	worker    Worker
	progress  Progress
}

// NewSupervisor creates a supervisor. A nil progress discards progress.
func NewSupervisor(generator classmap.Generator, worker Worker, progress Progress) *Supervisor {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Supervisor{
		generator: generator,
		worker:    worker,
		progress:  progress,
	}
}

// SetProgress replaces the progress sink for later runs.
func (s *Supervisor) SetProgress(progress Progress) {
	if progress == nil {
		progress = NopProgress{}
	}
	s.progress = progress
}

// Index regenerates the class map and indexes every entry.
func (s *Supervisor) Index(ctx context.Context) (*Stats, error) {
	entries, err := s.generator.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate class map: %w", err)
	}
	return s.Run(ctx, Job{Classes: classmap.Map(entries), Batch: entries})
}

// Run indexes job.Batch. Each generation receives the full class map and
// the remaining batch; the next generation starts only after the previous
// one handed off.
func (s *Supervisor) Run(ctx context.Context, job Job) (*Stats, error) {
	start := time.Now()
	stats := &Stats{
		RunID:   uuid.New().String(),
		Entries: len(job.Batch),
		Lost:    []string{},
	}

	log.Printf("[run %s] indexing %d classes", stats.RunID, len(job.Batch))
	s.progress.Open(len(job.Batch))
	defer s.progress.Close()

	batch := job.Batch
	for len(batch) > 0 {
		stats.Generations++

		var inFlight *classmap.Entry
		h, err := s.worker.Run(ctx, Job{Classes: job.Classes, Batch: batch}, func(e classmap.Entry) {
			inFlight = &e
			s.progress.Increment()
		})
		if err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("failed to run worker generation %d: %w", stats.Generations, err)
		}

		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}

		if h.Crashed && inFlight != nil {
			stats.Lost = append(stats.Lost, inFlight.Class)
			log.Printf("Warning: [run %s] worker crashed on %s (%s): %s", stats.RunID, inFlight.Class, inFlight.Path, h.Error)
		}

		if len(h.Remaining) >= len(batch) {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("%w: %d entries remaining", ErrStalled, len(batch))
		}
		batch = h.Remaining
	}

	stats.Duration = time.Since(start)
	log.Printf("[run %s] indexed %d classes in %d generations (%d lost) in %s",
		stats.RunID, stats.Entries-len(stats.Lost), stats.Generations, len(stats.Lost), stats.Duration.Round(time.Millisecond))
	return stats, nil
}
