package workspaces

import "errors"

var (
	// ErrURLNotFound is returned when workspace:create output carries no URL
	ErrURLNotFound = errors.New("unable to find workspace URL in stdout of workspace:create process")

	// ErrTimeout is returned when no running workspace pod shows up in time
	ErrTimeout = errors.New("waiting too long to have workspace running")

	// ErrNotFound is returned when no workspace matches a stop request
	ErrNotFound = errors.New("unable to stop the workspace: no workspaceId found")
)
