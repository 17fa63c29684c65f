package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/ghodss/yaml"
	"github.com/joho/godotenv"
)

// Action input names
const (
	InputPlatformURL = "che-url"
	InputDevfileURL  = "devfile-url"
	InputE2EVersion  = "e2e-version"
)

// happyPathDevfile is the default descriptor, relative to the clone
var happyPathDevfile = filepath.Join("tests", "e2e", "files", "happy-path", "happy-path-workspace.yaml")

// ErrMissingInput is returned when a required input is empty
var ErrMissingInput = errors.New("missing required input")

type Config struct {
	PlatformURL       string
	DescriptorLocator string
	E2EVersion        string

	RegistryURL        string
	LocalPrefix        string
	MaxConcurrentPulls int
	DockerEnvCommand   string
	PreflightImages    bool

	WorkspaceCLI  string
	Namespace     string
	FieldSelector string
	LabelSelector string
	PollTimeout   time.Duration
	PollInterval  time.Duration
	Kubeconfig    string

	CloneURL           string
	CloneDir           string
	CloneDepth         int
	E2EImageRepository string

	GitHubOutput string

	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	OTLPInsecure bool
}

// Overrides is the shape of the optional HAPPYPATH_CONFIG file. Only set
// fields replace values from the environment.
type Overrides struct {
	RegistryURL        *string `json:"registryUrl,omitempty"`
	LocalPrefix        *string `json:"localPrefix,omitempty"`
	MaxConcurrentPulls *int    `json:"maxConcurrentPulls,omitempty"`
	DockerEnvCommand   *string `json:"dockerEnvCommand,omitempty"`
	PreflightImages    *bool   `json:"preflightImages,omitempty"`
	Namespace          *string `json:"namespace,omitempty"`
	LabelSelector      *string `json:"labelSelector,omitempty"`
	PollTimeout        *string `json:"pollTimeout,omitempty"`
	PollInterval       *string `json:"pollInterval,omitempty"`
	Kubeconfig         *string `json:"kubeconfig,omitempty"`
	CloneURL           *string `json:"cloneUrl,omitempty"`
	CloneDir           *string `json:"cloneDir,omitempty"`
	E2EImageRepository *string `json:"e2eImageRepository,omitempty"`
	LogLevel           *string `json:"logLevel,omitempty"`
	LogFormat          *string `json:"logFormat,omitempty"`
	OTLPEndpoint       *string `json:"otlpEndpoint,omitempty"`
}

// Load loads configuration from action inputs and environment variables
// Automatically loads .env file if present
func Load() (*Config, error) {
	// Try to load .env file (fail silently if not present)
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		PlatformURL:       getInput(InputPlatformURL, "CHE_URL", ""),
		DescriptorLocator: getInput(InputDevfileURL, "DEVFILE_URL", ""),
		E2EVersion:        ResolveE2EVersion(getInput(InputE2EVersion, "E2E_VERSION", "")),

		RegistryURL:        getEnv("PLUGIN_REGISTRY_URL", "https://che-plugin-registry-main.surge.sh/v3/plugins"),
		LocalPrefix:        getEnv("LOCAL_IMAGE_PREFIX", "local-"),
		MaxConcurrentPulls: getEnvInt("MAX_CONCURRENT_PULLS", 4, &errs),
		DockerEnvCommand:   getEnv("DOCKER_ENV_COMMAND", "minikube"),
		PreflightImages:    getEnvBool("PREFLIGHT_IMAGES", false, &errs),

		WorkspaceCLI:  getEnv("WORKSPACE_CLI", "chectl"),
		Namespace:     getEnv("WORKSPACE_NAMESPACE", "admin-che"),
		FieldSelector: getEnv("WORKSPACE_FIELD_SELECTOR", "status.phase=Running"),
		LabelSelector: getEnv("WORKSPACE_LABEL_SELECTOR", "che.workspace_id"),
		PollTimeout:   getEnvDuration("WORKSPACE_TIMEOUT", 240*time.Second, &errs),
		PollInterval:  getEnvDuration("WORKSPACE_POLL_INTERVAL", 5*time.Second, &errs),
		Kubeconfig:    getEnv("KUBECONFIG", ""),

		CloneURL:           getEnv("CLONE_URL", "https://github.com/eclipse/che"),
		CloneDir:           getEnv("CLONE_DIR", "che"),
		CloneDepth:         getEnvInt("CLONE_DEPTH", 1, &errs),
		E2EImageRepository: getEnv("E2E_IMAGE_REPOSITORY", "quay.io/eclipse/che-e2e"),

		GitHubOutput: getEnv("GITHUB_OUTPUT", ""),

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true, &errs),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if path := os.Getenv("HAPPYPATH_CONFIG"); path != "" {
		overrides, err := LoadOverrides(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(overrides); err != nil {
			return nil, fmt.Errorf("apply %s: %w", path, err)
		}
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOverrides reads a YAML (or JSON) overrides file
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var overrides Overrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &overrides, nil
}

// Apply copies every set override onto the config
func (c *Config) Apply(o *Overrides) error {
	setString(&c.RegistryURL, o.RegistryURL)
	setString(&c.LocalPrefix, o.LocalPrefix)
	setString(&c.DockerEnvCommand, o.DockerEnvCommand)
	setString(&c.Namespace, o.Namespace)
	setString(&c.LabelSelector, o.LabelSelector)
	setString(&c.Kubeconfig, o.Kubeconfig)
	setString(&c.CloneURL, o.CloneURL)
	setString(&c.CloneDir, o.CloneDir)
	setString(&c.E2EImageRepository, o.E2EImageRepository)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)
	setString(&c.OTLPEndpoint, o.OTLPEndpoint)

	if o.MaxConcurrentPulls != nil {
		c.MaxConcurrentPulls = *o.MaxConcurrentPulls
	}
	if o.PreflightImages != nil {
		c.PreflightImages = *o.PreflightImages
	}
	if o.PollTimeout != nil {
		d, err := time.ParseDuration(*o.PollTimeout)
		if err != nil {
			return fmt.Errorf("pollTimeout: %w", err)
		}
		c.PollTimeout = d
	}
	if o.PollInterval != nil {
		d, err := time.ParseDuration(*o.PollInterval)
		if err != nil {
			return fmt.Errorf("pollInterval: %w", err)
		}
		c.PollInterval = d
	}
	return nil
}

func (c *Config) finalize() error {
	if c.PlatformURL == "" {
		return fmt.Errorf("%w: no che-url provided (%s)", ErrMissingInput, InputPlatformURL)
	}
	if c.MaxConcurrentPulls < 1 {
		return fmt.Errorf("max concurrent pulls must be positive, got %d", c.MaxConcurrentPulls)
	}
	if c.DescriptorLocator == "" {
		locator, err := DefaultDescriptorLocator(c.CloneDir)
		if err != nil {
			return err
		}
		c.DescriptorLocator = locator
	}
	return nil
}

// DefaultDescriptorLocator returns the happy-path devfile inside the clone
func DefaultDescriptorLocator(cloneDir string) (string, error) {
	root, err := filepath.Abs(cloneDir)
	if err != nil {
		return "", fmt.Errorf("resolve clone dir: %w", err)
	}
	locator, err := securejoin.SecureJoin(root, happyPathDevfile)
	if err != nil {
		return "", fmt.Errorf("resolve default devfile: %w", err)
	}
	return locator, nil
}

// ResolveE2EVersion maps the e2e-version input to an image tag
func ResolveE2EVersion(version string) string {
	switch version {
	case "", "next":
		return "next"
	case "stable":
		return "latest"
	default:
		return version
	}
}

// getInput reads a GitHub Actions input, falling back to a plain variable
func getInput(name, fallbackKey, defaultValue string) string {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return getEnv(fallbackKey, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
