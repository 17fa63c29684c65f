package process

import (
	"context"
	"sync"
)

// Call records one invocation seen by a Fake runner
type Call struct {
	Name string
	Args []string
	Opts Options
}

// Fake is an in-memory Runner for tests. Handler decides the outcome of each
// call; a nil Handler succeeds with empty output.
type Fake struct {
	Handler func(call Call) (*Result, error)

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) Run(ctx context.Context, name string, args []string, opts Options) (*Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...), Opts: opts}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.Handler == nil {
		return &Result{}, nil
	}
	return f.Handler(call)
}

// Calls returns a snapshot of recorded invocations in call order
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
