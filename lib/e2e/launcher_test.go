package e2e

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/onkernel/happypath/lib/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLauncher(cfg Config, runner process.Runner, environ []string) *Launcher {
	l := NewLauncher(cfg, runner)
	l.environ = func() []string { return environ }
	l.stdout = io.Discard
	l.stderr = io.Discard
	return l
}

func TestImage(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{name: "defaults", config: Config{}, want: "quay.io/eclipse/che-e2e:next"},
		{name: "explicit tag", config: Config{Tag: "7.40.0"}, want: "quay.io/eclipse/che-e2e:7.40.0"},
		{name: "custom repository", config: Config{ImageRepository: "localhost:5000/e2e", Tag: "latest"}, want: "localhost:5000/e2e:latest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewLauncher(tt.config, &process.Fake{}).Image())
		})
	}
}

func TestTestDirStaysInsideClone(t *testing.T) {
	dir := t.TempDir()
	l := NewLauncher(Config{CloneDir: dir}, &process.Fake{})

	got, err := l.TestDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tests", "e2e"), got)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	runner := &process.Fake{}
	l := newTestLauncher(Config{
		PlatformURL: "http://my-che",
		CloneDir:    dir,
		Tag:         "1.2.3",
	}, runner, []string{
		"PATH=/usr/bin",
		"HOME=/home/runner",
		"DOCKER_HOST=tcp://192.168.49.2:2376",
		"DOCKER_TLS_VERIFY=1",
	})

	require.NoError(t, l.Run(context.Background()))

	calls := runner.Calls()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, "docker", call.Name)
	assert.Equal(t, "run", call.Args[0])
	assert.Equal(t, "quay.io/eclipse/che-e2e:1.2.3", call.Args[len(call.Args)-1])
	assert.Len(t, call.Args, 31)
	assert.Contains(t, call.Args, "TS_SELENIUM_BASE_URL=http://my-che")
	assert.Contains(t, call.Args, filepath.Join(dir, "tests", "e2e")+":/tmp/e2e")

	assert.True(t, call.Opts.Isolated)
	assert.Equal(t, map[string]string{
		"PATH": "/usr/bin",
		"HOME": "/home/runner",
	}, call.Opts.Env)
}

func TestRunFailure(t *testing.T) {
	runner := &process.Fake{Handler: func(call process.Call) (*process.Result, error) {
		return nil, &process.ExitError{Command: "docker", Code: 1}
	}}
	l := newTestLauncher(Config{PlatformURL: "http://my-che", CloneDir: t.TempDir()}, runner, nil)

	err := l.Run(context.Background())
	var exitErr *process.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}
