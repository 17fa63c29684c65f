// Package process runs external commands on behalf of the pipeline stages.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/onkernel/happypath/lib/logger"
	"github.com/samber/lo"
)

// Runner executes an external command and captures its stdout
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts Options) (*Result, error)
}

// Options controls the environment and stream forwarding of a command
type Options struct {
	// Env holds variables set on top of the inherited environment
	Env map[string]string

	// Isolated disables inheriting the current process environment;
	// only Env is passed to the child
	Isolated bool

	// Stdout and Stderr receive live copies of the streams when non-nil
	Stdout io.Writer
	Stderr io.Writer

	// Dir is the working directory; empty means the current one
	Dir string
}

// Result is the outcome of a successful command
type Result struct {
	ExitCode int
	Stdout   string
}

// maxStderrTail bounds how much stderr is kept for error messages
const maxStderrTail = 4096

type execRunner struct{}

// NewRunner returns a Runner backed by os/exec
func NewRunner() Runner {
	return &execRunner{}
}

func (r *execRunner) Run(ctx context.Context, name string, args []string, opts Options) (*Result, error) {
	log := logger.FromContext(ctx)
	log.DebugContext(ctx, "running command", "command", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	cmd.Env = BuildEnv(os.Environ(), opts.Env, opts.Isolated)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = teeWriter(&stdout, opts.Stdout)
	cmd.Stderr = teeWriter(&stderr, opts.Stderr)

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{
				Command: name,
				Args:    args,
				Code:    exitErr.ExitCode(),
				Stderr:  tail(stderr.String(), maxStderrTail),
				err:     err,
			}
		}
		return nil, fmt.Errorf("run %s: %w", name, err)
	}

	return &Result{ExitCode: 0, Stdout: stdout.String()}, nil
}

// BuildEnv assembles a KEY=VALUE environment. Overrides win over base entries;
// with isolated set the base is ignored entirely.
func BuildEnv(base []string, overrides map[string]string, isolated bool) []string {
	merged := map[string]string{}
	if !isolated {
		merged = EnvMap(base)
	}
	for k, v := range overrides {
		merged[k] = v
	}

	keys := lo.Keys(merged)
	sort.Strings(keys)
	return lo.Map(keys, func(k string, _ int) string {
		return k + "=" + merged[k]
	})
}

// EnvMap converts KEY=VALUE entries to a map. Entries without '=' are skipped.
func EnvMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func teeWriter(capture *bytes.Buffer, live io.Writer) io.Writer {
	if live == nil {
		return capture
	}
	return io.MultiWriter(capture, live)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
