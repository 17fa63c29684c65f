package workspaces

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// workspaceIDPattern accepts generated workspace ids; the header ("Id") and
// the box-drawing separator row never match
var workspaceIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ParseWorkspaceList parses the table printed by workspace:list:
//
//	Id                        Name                      Namespace Status  Created                  Updated
//	───────────────────────── ───────────────────────── ───────── ─────── ──────────────────────── ────────────────────────
//	workspaceyoefdrwv4kqztmnh petclinic-dev-environment admin-che STOPPED 2021-11-05T10:02:01.720Z 2021-11-05T10:09:45.694Z
func ParseWorkspaceList(stdout string) []Workspace {
	var out []Workspace
	for _, line := range strings.Split(stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || !workspaceIDPattern.MatchString(fields[0]) {
			continue
		}

		out = append(out, Workspace{
			ID:        fields[0],
			Name:      column(fields, 1),
			Namespace: column(fields, 2),
			Status:    Status(column(fields, 3)),
			Created:   column(fields, 4),
			Updated:   column(fields, 5),
		})
	}
	return out
}

func column(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// FindByName returns the first workspace with the given name
func FindByName(workspaces []Workspace, name string) (Workspace, bool) {
	return lo.Find(workspaces, func(ws Workspace) bool {
		return ws.Name == name
	})
}
