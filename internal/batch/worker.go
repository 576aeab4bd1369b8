// Package batch drives indexing of a whole class map through a chain of
// isolated worker generations. A worker that crashes hands the entries it
// has not started back to the supervisor, which starts a new generation with
// them; only the entry in flight at the time of the crash is lost.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mvp-joe/phpintel/internal/classmap"
)

var (
	// ErrStalled is returned when a generation hands back as much work as it
	// was given.
	ErrStalled = errors.New("worker generation made no progress")

	// ErrNoHandoff is returned when a worker ends without claiming an entry
	// or sending its handoff.
	ErrNoHandoff = errors.New("worker ended without a handoff")
)

// Job is the work given to one worker generation. Classes is the complete
// class map so the worker can load dependencies of the entries it indexes.
type Job struct {
	Classes map[string]string `json:"classes"`
	Batch   []classmap.Entry  `json:"batch"`
}

// Handoff is the one message a generation sends when it ends.
type Handoff struct {
	Remaining []classmap.Entry `json:"remaining"`
	Crashed   bool             `json:"crashed"`
	Error     string           `json:"error,omitempty"`
}

// Worker runs one generation and reports each entry it starts through claim.
type Worker interface {
	Run(ctx context.Context, job Job, claim func(classmap.Entry)) (Handoff, error)
}

// Environment indexes entries for one generation.
type Environment interface {
	Process(entry classmap.Entry) error
	Close()
}

// EnvironmentFactory creates a fresh environment for a generation.
type EnvironmentFactory func(job Job) (Environment, error)

// Drain processes batch from the front. Each entry is claimed before it is
// processed. A panic while processing ends the drain with the entries not
// yet claimed as the remaining work. Failed entries are logged and skipped.
func Drain(ctx context.Context, batch []classmap.Entry, process func(classmap.Entry) error, claim func(classmap.Entry)) (handoff Handoff) {
	remaining := batch

	defer func() {
		if r := recover(); r != nil {
			handoff = Handoff{
				Remaining: append([]classmap.Entry{}, remaining...),
				Crashed:   true,
				Error:     fmt.Sprint(r),
			}
		}
	}()

	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return Handoff{Remaining: append([]classmap.Entry{}, remaining...), Error: err.Error()}
		}

		entry := remaining[0]
		remaining = remaining[1:]
		claim(entry)

		if err := process(entry); err != nil {
			log.Printf("Warning: failed to index %s: %v", entry.Class, err)
		}
	}

	return Handoff{Remaining: []classmap.Entry{}}
}
