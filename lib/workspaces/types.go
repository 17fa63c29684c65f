package workspaces

// Status is the workspace status reported by the CLI
type Status string

const (
	StatusStarting Status = "STARTING"
	StatusRunning  Status = "RUNNING"
	StatusStopping Status = "STOPPING"
	StatusStopped  Status = "STOPPED"
)

// Workspace is one row of the CLI's workspace listing. It is re-read from the
// CLI on every operation and never cached.
type Workspace struct {
	ID        string
	Name      string
	Namespace string
	Status    Status
	Created   string
	Updated   string
}

// IsRunning reports whether the CLI considers the workspace running
func (w Workspace) IsRunning() bool {
	return w.Status == StatusRunning
}
