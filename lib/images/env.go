package images

import (
	"context"
	"fmt"
	"regexp"

	"github.com/onkernel/happypath/lib/logger"
	"github.com/onkernel/happypath/lib/process"
)

// DockerEnv holds the variables that point docker at the cluster's runtime.
// It is passed explicitly to every pull instead of mutating the process env.
type DockerEnv map[string]string

var exportPattern = regexp.MustCompile(`(?m)export (.*)="(.*)"`)

// ParseDockerEnv extracts export KEY="VALUE" directives. Other lines are skipped.
func ParseDockerEnv(output string) DockerEnv {
	env := DockerEnv{}
	for _, m := range exportPattern.FindAllStringSubmatch(output, -1) {
		key, value := m[1], m[2]
		if key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// SetupEnv queries the cluster runtime helper (e.g. minikube docker-env) for
// the docker environment. An empty helper command yields an empty env.
func (m *manager) SetupEnv(ctx context.Context) (DockerEnv, error) {
	log := logger.FromContext(ctx)

	if m.config.DockerEnvCommand == "" {
		log.InfoContext(ctx, "no docker-env helper configured, using local docker")
		return DockerEnv{}, nil
	}

	log.InfoContext(ctx, fmt.Sprintf("Setup docker-env of %s", m.config.DockerEnvCommand))
	res, err := m.runner.Run(ctx, m.config.DockerEnvCommand, []string{"docker-env"}, process.Options{})
	if err != nil {
		return nil, fmt.Errorf("%s docker-env: %w", m.config.DockerEnvCommand, err)
	}

	env := ParseDockerEnv(res.Stdout)
	for key, value := range env {
		log.InfoContext(ctx, fmt.Sprintf("Exporting %s to %s", key, value))
	}
	return env, nil
}
