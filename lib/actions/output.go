// Package actions publishes step outputs to the CI runner.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nrednav/cuid2"
)

// Publisher makes a named value visible to later CI steps
type Publisher interface {
	SetOutput(name, value string) error
}

// GitHubPublisher writes outputs the way GitHub Actions expects: appended to
// the file named by GITHUB_OUTPUT, or as a workflow command on stdout when
// that file is not provided.
type GitHubPublisher struct {
	outputFile string
	stdout     io.Writer
}

// NewGitHubPublisher creates a publisher for the given output file path.
// An empty path falls back to workflow commands on stdout.
func NewGitHubPublisher(outputFile string) *GitHubPublisher {
	return &GitHubPublisher{outputFile: outputFile, stdout: os.Stdout}
}

func (p *GitHubPublisher) SetOutput(name, value string) error {
	if p.outputFile == "" {
		_, err := fmt.Fprintf(p.stdout, "::set-output name=%s::%s\n", name, escapeCommandValue(value))
		return err
	}

	f, err := os.OpenFile(p.outputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatOutput(name, value)); err != nil {
		return fmt.Errorf("write output %s: %w", name, err)
	}
	return nil
}

// formatOutput renders name=value, switching to the heredoc form for
// multi-line values
func formatOutput(name, value string) string {
	if !strings.ContainsAny(value, "\r\n") {
		return fmt.Sprintf("%s=%s\n", name, value)
	}
	delimiter := "ghadelimiter_" + cuid2.Generate()
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
}

func escapeCommandValue(value string) string {
	value = strings.ReplaceAll(value, "%", "%25")
	value = strings.ReplaceAll(value, "\r", "%0D")
	return strings.ReplaceAll(value, "\n", "%0A")
}
