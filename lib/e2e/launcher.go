// Package e2e launches the browser-automation test container against a
// running platform.
package e2e

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/onkernel/happypath/lib/logger"
	"github.com/onkernel/happypath/lib/process"
	"github.com/samber/lo"
)

const (
	// DefaultImageRepository hosts the e2e test images
	DefaultImageRepository = "quay.io/eclipse/che-e2e"

	// containerTestDir is where the cloned e2e folder is mounted
	containerTestDir = "/tmp/e2e"
)

// hostDockerVars point docker at a remote daemon (minikube) and must not
// leak into the test run, which uses the local one
var hostDockerVars = []string{"DOCKER_HOST", "DOCKER_TLS_VERIFY"}

// Config holds launcher settings
type Config struct {
	// PlatformURL is the base URL the tests drive
	PlatformURL string

	// CloneDir is the checkout holding tests/e2e
	CloneDir string

	// ImageRepository and Tag select the test image
	ImageRepository string
	Tag             string
}

// Launcher runs the e2e test container
type Launcher struct {
	config  Config
	runner  process.Runner
	environ func() []string
	stdout  io.Writer
	stderr  io.Writer
}

// NewLauncher creates a Launcher
func NewLauncher(config Config, runner process.Runner) *Launcher {
	if config.ImageRepository == "" {
		config.ImageRepository = DefaultImageRepository
	}
	if config.Tag == "" {
		config.Tag = "next"
	}
	return &Launcher{
		config:  config,
		runner:  runner,
		environ: os.Environ,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// Image returns the test image reference
func (l *Launcher) Image() string {
	return l.config.ImageRepository + ":" + l.config.Tag
}

// TestDir resolves the e2e folder inside the clone to an absolute path
func (l *Launcher) TestDir() (string, error) {
	root, err := filepath.Abs(l.config.CloneDir)
	if err != nil {
		return "", fmt.Errorf("resolve clone dir: %w", err)
	}
	dir, err := securejoin.SecureJoin(root, filepath.Join("tests", "e2e"))
	if err != nil {
		return "", fmt.Errorf("resolve e2e dir: %w", err)
	}
	return dir, nil
}

// Args builds the docker run arguments for the given e2e folder
func (l *Launcher) Args(testDir string) []string {
	args := []string{
		"run",
		"--shm-size=1g",
		"--net=host",
		"--ipc=host",
		"-p", "5920:5920",
	}
	for _, kv := range l.containerEnv() {
		args = append(args, "-e", kv)
	}
	return append(args, "-v", testDir+":"+containerTestDir, l.Image())
}

func (l *Launcher) containerEnv() []string {
	return []string{
		"VIDEO_RECORDING=false",
		"TS_SELENIUM_HEADLESS=false",
		"TS_SELENIUM_DEFAULT_TIMEOUT=300000",
		"TS_SELENIUM_LOAD_PAGE_TIMEOUT=240000",
		"TS_SELENIUM_WORKSPACE_STATUS_POLLING=20000",
		"TS_SELENIUM_BASE_URL=" + l.config.PlatformURL,
		"TS_SELENIUM_LOG_LEVEL=DEBUG",
		"TS_SELENIUM_MULTIUSER=true",
		"TS_SELENIUM_USERNAME=admin",
		"TS_SELENIUM_PASSWORD=admin",
		"NODE_TLS_REJECT_UNAUTHORIZED=0",
	}
}

// Run launches the test container and waits for it to exit
func (l *Launcher) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, fmt.Sprintf("Happy path tests will use Eclipse Che URL: %s", l.config.PlatformURL))

	testDir, err := l.TestDir()
	if err != nil {
		return err
	}

	args := l.Args(testDir)
	log.InfoContext(ctx, "Launch docker command "+strings.Join(args, " "))

	env := lo.OmitByKeys(process.EnvMap(l.environ()), hostDockerVars)

	log.InfoContext(ctx, "Waiting...")
	_, err = l.runner.Run(ctx, "docker", args, process.Options{
		Env:      env,
		Isolated: true,
		Stdout:   l.stdout,
		Stderr:   l.stderr,
	})
	if err != nil {
		return fmt.Errorf("run e2e tests: %w", err)
	}
	return nil
}
