package batch

import (
	"context"
	"fmt"

	"github.com/mvp-joe/phpintel/internal/classmap"
)

// InProcessWorker runs each generation in a goroutine with a fresh
// environment. A panic inside the environment is the crash boundary.
type InProcessWorker struct {
	NewEnv EnvironmentFactory
}

// NewInProcessWorker creates an in-process worker.
func NewInProcessWorker(newEnv EnvironmentFactory) *InProcessWorker {
	return &InProcessWorker{NewEnv: newEnv}
}

// Run implements Worker.
func (w *InProcessWorker) Run(ctx context.Context, job Job, claim func(classmap.Entry)) (Handoff, error) {
	env, err := w.NewEnv(job)
	if err != nil {
		return Handoff{}, fmt.Errorf("failed to create worker environment: %w", err)
	}

	claims := make(chan classmap.Entry)
	handoffs := make(chan Handoff)

	go func() {
		defer env.Close()

		h := Drain(ctx, job.Batch, env.Process, func(e classmap.Entry) {
			select {
			case claims <- e:
			case <-ctx.Done():
			}
		})

		select {
		case handoffs <- h:
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case e := <-claims:
			claim(e)
		case h := <-handoffs:
			return h, nil
		case <-ctx.Done():
			return Handoff{}, ctx.Err()
		}
	}
}
