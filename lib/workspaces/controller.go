// Package workspaces drives a workspace through creation, startup and stop
// using the platform CLI, and watches the cluster until it is running.
//
// The controller keeps no workspace state between calls: the CLI and the
// cluster are queried afresh by every operation.
package workspaces

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/onkernel/happypath/lib/actions"
	"github.com/onkernel/happypath/lib/cluster"
	"github.com/onkernel/happypath/lib/logger"
	"github.com/onkernel/happypath/lib/process"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OutputWorkspaceURL is the CI output carrying the started workspace URL
const OutputWorkspaceURL = "workspace-url"

// Controller handles workspace lifecycle operations
type Controller interface {
	// Start creates and starts a workspace, publishes its URL and waits
	// until it is running. Returns the workspace URL.
	Start(ctx context.Context) (string, error)

	// WaitUntilRunning polls the cluster until a running workspace pod
	// exists or timeout elapses. Zero values select the configured defaults.
	WaitUntilRunning(ctx context.Context, timeout, interval time.Duration) error

	// List returns the workspaces known to the CLI
	List(ctx context.Context) ([]Workspace, error)

	// Stop stops the workspace at matchIndex in the CLI listing
	Stop(ctx context.Context, matchIndex int) error

	// StopByName stops the workspace with the given name
	StopByName(ctx context.Context, name string) error
}

// Config holds configuration for the workspace controller
type Config struct {
	// CLI is the platform command line tool
	CLI string

	// DescriptorLocator is passed to workspace:create as the devfile
	DescriptorLocator string

	// Namespace holds the workspace pods
	Namespace string

	// FieldSelector and LabelSelector identify a running workspace pod
	FieldSelector string
	LabelSelector string

	// Timeout and Interval bound the running-state poll
	Timeout  time.Duration
	Interval time.Duration
}

// DefaultConfig returns the default controller configuration
func DefaultConfig() Config {
	return Config{
		CLI:           "chectl",
		Namespace:     "admin-che",
		FieldSelector: "status.phase=Running",
		LabelSelector: "che.workspace_id",
		Timeout:       240 * time.Second,
		Interval:      5 * time.Second,
	}
}

var workspaceURLPattern = regexp.MustCompile(`https://[^\r\n]*`)

type controller struct {
	config    Config
	runner    process.Runner
	pods      cluster.PodLister
	publisher actions.Publisher
	output    io.Writer
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	metrics   *Metrics
}

// NewController creates a workspace controller. meter may be nil.
func NewController(
	config Config,
	runner process.Runner,
	pods cluster.PodLister,
	publisher actions.Publisher,
	meter metric.Meter,
) (Controller, error) {
	defaults := DefaultConfig()
	if config.CLI == "" {
		config.CLI = defaults.CLI
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}

	c := &controller{
		config:    config,
		runner:    runner,
		pods:      pods,
		publisher: publisher,
		output:    os.Stdout,
		now:       time.Now,
		sleep:     sleepContext,
	}

	if meter != nil {
		metrics, err := newMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
		c.metrics = metrics
	}

	return c, nil
}

func (c *controller) Start(ctx context.Context) (string, error) {
	log := logger.FromContext(ctx)
	start := c.now()

	log.InfoContext(ctx, "Create and start workspace...")
	log.InfoContext(ctx, fmt.Sprintf("DevFile Path selected to %s", c.config.DescriptorLocator))

	res, err := c.runner.Run(ctx, c.config.CLI, []string{
		"workspace:create",
		"--start",
		"--devfile=" + c.config.DescriptorLocator,
	}, process.Options{Stdout: c.output})
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}

	workspaceURL, err := ExtractWorkspaceURL(res.Stdout)
	if err != nil {
		return "", err
	}

	if err := c.publisher.SetOutput(OutputWorkspaceURL, workspaceURL); err != nil {
		return "", fmt.Errorf("publish workspace url: %w", err)
	}
	log.InfoContext(ctx, fmt.Sprintf("Detect as workspace URL the value %s", workspaceURL))

	if err := c.WaitUntilRunning(ctx, c.config.Timeout, c.config.Interval); err != nil {
		if c.metrics != nil {
			c.metrics.recordStart(ctx, "failed", start)
		}
		return "", err
	}

	if c.metrics != nil {
		c.metrics.recordStart(ctx, "success", start)
	}
	return workspaceURL, nil
}

// ExtractWorkspaceURL returns the first https URL in the create output,
// running to the end of its line
func ExtractWorkspaceURL(stdout string) (string, error) {
	match := strings.TrimSpace(workspaceURLPattern.FindString(stdout))
	if match == "" {
		return "", fmt.Errorf("%w. Found %s", ErrURLNotFound, stdout)
	}
	return match, nil
}

func (c *controller) WaitUntilRunning(ctx context.Context, timeout, interval time.Duration) error {
	log := logger.FromContext(ctx)

	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	if interval <= 0 {
		interval = c.config.Interval
	}

	deadline := c.now().Add(timeout)
	for attempt := 1; ; attempt++ {
		pods, err := c.pods.ListPods(ctx, c.config.Namespace, c.config.FieldSelector, c.config.LabelSelector)
		if c.metrics != nil {
			c.metrics.pollAttempts.Add(ctx, 1)
		}
		if err != nil {
			return fmt.Errorf("query workspace pods: %w", err)
		}
		if len(pods) > 0 {
			log.InfoContext(ctx, "Found a running workspace, do not wait anymore", "pod", pods[0].Name, "attempts", attempt)
			return nil
		}

		// The next attempt would land on or past the deadline.
		if !c.now().Add(interval).Before(deadline) {
			return fmt.Errorf("%w: no running pod after %s (%d attempts)", ErrTimeout, timeout, attempt)
		}

		log.InfoContext(ctx, "Waiting workspace running...")
		if err := c.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *controller) List(ctx context.Context) ([]Workspace, error) {
	res, err := c.runner.Run(ctx, c.config.CLI, []string{"workspace:list"}, process.Options{})
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return ParseWorkspaceList(res.Stdout), nil
}

func (c *controller) Stop(ctx context.Context, matchIndex int) error {
	workspaces, err := c.List(ctx)
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		return ErrNotFound
	}
	if matchIndex < 0 || matchIndex >= len(workspaces) {
		return fmt.Errorf("%w: index %d out of %d workspaces", ErrNotFound, matchIndex, len(workspaces))
	}
	return c.stop(ctx, workspaces[matchIndex])
}

func (c *controller) StopByName(ctx context.Context, name string) error {
	workspaces, err := c.List(ctx)
	if err != nil {
		return err
	}
	ws, ok := FindByName(workspaces, name)
	if !ok {
		return fmt.Errorf("%w: no workspace named %s", ErrNotFound, name)
	}
	return c.stop(ctx, ws)
}

func (c *controller) stop(ctx context.Context, ws Workspace) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "stopping workspace", "id", ws.ID, "name", ws.Name, "status", ws.Status)

	if _, err := c.runner.Run(ctx, c.config.CLI, []string{"workspace:stop", ws.ID}, process.Options{}); err != nil {
		return fmt.Errorf("stop workspace %s: %w", ws.ID, err)
	}

	if c.metrics != nil {
		c.metrics.stopsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("namespace", ws.Namespace)))
	}
	return nil
}
