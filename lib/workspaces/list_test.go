package workspaces

import (
	"context"
	"testing"

	"github.com/onkernel/happypath/lib/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workspaceListOutput = `Id                        Name                      Namespace Status  Created                  Updated
───────────────────────── ───────────────────────── ───────── ─────── ──────────────────────── ────────────────────────
workspaceyoefdrwv4kqztmnh petclinic-dev-environment admin-che STOPPED 2021-11-05T10:02:01.720Z 2021-11-05T10:09:45.694Z
workspacex2f4ey0ucfbwb4ap happy-path                admin-che RUNNING 2021-11-05T10:12:13.101Z 2021-11-05T10:13:02.554Z
`

func TestParseWorkspaceList(t *testing.T) {
	got := ParseWorkspaceList(workspaceListOutput)
	require.Len(t, got, 2)

	assert.Equal(t, Workspace{
		ID:        "workspaceyoefdrwv4kqztmnh",
		Name:      "petclinic-dev-environment",
		Namespace: "admin-che",
		Status:    StatusStopped,
		Created:   "2021-11-05T10:02:01.720Z",
		Updated:   "2021-11-05T10:09:45.694Z",
	}, got[0])
	assert.Equal(t, "happy-path", got[1].Name)
	assert.True(t, got[1].IsRunning())
	assert.False(t, got[0].IsRunning())
}

func TestParseWorkspaceListEmpty(t *testing.T) {
	assert.Empty(t, ParseWorkspaceList(""))
	assert.Empty(t, ParseWorkspaceList("Id Name Namespace Status Created Updated\n──── ────\n"))
}

func listRunner(stdout string) *process.Fake {
	return &process.Fake{Handler: func(call process.Call) (*process.Result, error) {
		if len(call.Args) > 0 && call.Args[0] == "workspace:list" {
			return &process.Result{Stdout: stdout}, nil
		}
		return &process.Result{}, nil
	}}
}

func TestStop(t *testing.T) {
	runner := listRunner(workspaceListOutput)
	c := newTestController(t, runner, &fakePods{}, &recordingPublisher{}, nil)

	require.NoError(t, c.Stop(context.Background(), 0))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"workspace:list"}, calls[0].Args)
	assert.Equal(t, "chectl", calls[1].Name)
	assert.Equal(t, []string{"workspace:stop", "workspaceyoefdrwv4kqztmnh"}, calls[1].Args)
}

func TestStopWithoutWorkspaces(t *testing.T) {
	runner := listRunner("Id Name Namespace Status Created Updated\n")
	c := newTestController(t, runner, &fakePods{}, &recordingPublisher{}, nil)

	err := c.Stop(context.Background(), 0)
	require.ErrorIs(t, err, ErrNotFound)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"workspace:list"}, calls[0].Args)
}

func TestStopIndexOutOfRange(t *testing.T) {
	runner := listRunner(workspaceListOutput)
	c := newTestController(t, runner, &fakePods{}, &recordingPublisher{}, nil)

	require.ErrorIs(t, c.Stop(context.Background(), 5), ErrNotFound)
	require.ErrorIs(t, c.Stop(context.Background(), -1), ErrNotFound)
	assert.Len(t, runner.Calls(), 2)
}

func TestStopByName(t *testing.T) {
	runner := listRunner(workspaceListOutput)
	c := newTestController(t, runner, &fakePods{}, &recordingPublisher{}, nil)

	require.NoError(t, c.StopByName(context.Background(), "happy-path"))
	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"workspace:stop", "workspacex2f4ey0ucfbwb4ap"}, calls[1].Args)

	err := c.StopByName(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, runner.Calls(), 3)
}
