package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/mvp-joe/phpintel/internal/classmap"
)

// HandoffFD is the descriptor a child worker writes its records to.
const HandoffFD = 3

// record is one line of the worker protocol: a claim for every entry the
// child starts, then exactly one handoff.
type record struct {
	Claim   *classmap.Entry `json:"claim,omitempty"`
	Handoff *Handoff        `json:"handoff,omitempty"`
}

// ProcessWorker runs each generation in a child process. The job goes to the
// child's stdin and records come back on an inherited pipe at HandoffFD.
type ProcessWorker struct {
	Path   string   // executable, usually os.Executable()
	Args   []string // arguments selecting the worker entry point
	Env    []string // extra environment variables
	Stderr io.Writer
}

// Run implements Worker. A child that dies before its handoff, for example on
// a fatal runtime error that cannot be recovered, has its remaining work
// reconstructed from the claims it sent.
func (w *ProcessWorker) Run(ctx context.Context, job Job, claim func(classmap.Entry)) (Handoff, error) {
	input, err := json.Marshal(job)
	if err != nil {
		return Handoff{}, fmt.Errorf("failed to encode job: %w", err)
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return Handoff{}, fmt.Errorf("failed to create handoff pipe: %w", err)
	}
	defer reader.Close()

	cmd := exec.CommandContext(ctx, w.Path, w.Args...)
	cmd.Env = append(os.Environ(), w.Env...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = w.Stderr
	cmd.Stderr = w.Stderr
	cmd.ExtraFiles = []*os.File{writer}

	if err := cmd.Start(); err != nil {
		writer.Close()
		return Handoff{}, fmt.Errorf("failed to start worker: %w", err)
	}
	writer.Close()

	var (
		claimed int
		handoff *Handoff
	)
	decoder := json.NewDecoder(reader)
	for {
		var rec record
		if err := decoder.Decode(&rec); err != nil {
			break
		}
		if rec.Claim != nil {
			claimed++
			claim(*rec.Claim)
		}
		if rec.Handoff != nil {
			handoff = rec.Handoff
		}
	}

	waitErr := cmd.Wait()
	if err := ctx.Err(); err != nil {
		return Handoff{}, err
	}

	if handoff != nil {
		return *handoff, nil
	}
	if claimed == 0 {
		return Handoff{}, fmt.Errorf("%w: %v", ErrNoHandoff, waitErr)
	}

	if claimed > len(job.Batch) {
		claimed = len(job.Batch)
	}
	return Handoff{
		Remaining: append([]classmap.Entry{}, job.Batch[claimed:]...),
		Crashed:   true,
		Error:     fmt.Sprint(waitErr),
	}, nil
}

// Serve is the child side of ProcessWorker: it reads a job from in, drains it
// and writes claim records and the handoff to out.
func Serve(ctx context.Context, in io.Reader, out io.Writer, newEnv EnvironmentFactory) error {
	var job Job
	if err := json.NewDecoder(in).Decode(&job); err != nil {
		return fmt.Errorf("failed to decode job: %w", err)
	}

	env, err := newEnv(job)
	if err != nil {
		return fmt.Errorf("failed to create worker environment: %w", err)
	}
	defer env.Close()

	encoder := json.NewEncoder(out)
	h := Drain(ctx, job.Batch, env.Process, func(e classmap.Entry) {
		if err := encoder.Encode(record{Claim: &e}); err != nil {
			panic(fmt.Sprintf("failed to send claim: %v", err))
		}
	})
	if err := encoder.Encode(record{Handoff: &h}); err != nil {
		return fmt.Errorf("failed to send handoff: %w", err)
	}
	return nil
}

// HandoffPipe opens the descriptor inherited from ProcessWorker.
func HandoffPipe() (*os.File, error) {
	f := os.NewFile(uintptr(HandoffFD), "handoff")
	if f == nil {
		return nil, fmt.Errorf("handoff descriptor %d is not open", HandoffFD)
	}
	if _, err := f.Stat(); err != nil {
		return nil, fmt.Errorf("handoff descriptor %d is not open: %w", HandoffFD, err)
	}
	return f, nil
}
