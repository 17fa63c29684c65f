// Package repository fetches the source tree holding the e2e tests and the
// happy-path devfile.
package repository

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/onkernel/happypath/lib/logger"
	"github.com/onkernel/happypath/lib/process"
)

// DefaultURL is the repository holding the happy-path suite
const DefaultURL = "https://github.com/eclipse/che"

// Config holds clone settings
type Config struct {
	URL string
	// Dir is the checkout directory; empty lets git pick it from the URL
	Dir string
	// Depth limits history; zero clones full history
	Depth int
}

// Cloner clones the configured repository
type Cloner struct {
	config Config
	runner process.Runner
	output io.Writer
}

// NewCloner creates a Cloner. A zero Depth stays zero; callers wanting a
// shallow clone set it explicitly.
func NewCloner(config Config, runner process.Runner) *Cloner {
	if config.URL == "" {
		config.URL = DefaultURL
	}
	return &Cloner{config: config, runner: runner, output: os.Stdout}
}

// Args returns the git arguments used by Clone
func (c *Cloner) Args() []string {
	args := []string{"clone"}
	if c.config.Depth > 0 {
		args = append(args, "--depth", fmt.Sprint(c.config.Depth))
	}
	args = append(args, c.config.URL)
	if c.config.Dir != "" {
		args = append(args, c.config.Dir)
	}
	return args
}

// Clone runs git clone, streaming its output
func (c *Cloner) Clone(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, fmt.Sprintf("Cloning %s...", c.config.URL), "dir", c.config.Dir)

	if _, err := c.runner.Run(ctx, "git", c.Args(), process.Options{Stdout: c.output, Stderr: c.output}); err != nil {
		return fmt.Errorf("clone %s: %w", c.config.URL, err)
	}

	log.InfoContext(ctx, fmt.Sprintf("Cloning %s done", c.config.URL))
	return nil
}
