// Package devfile discovers the container images a workspace descriptor needs,
// following plugin registry lookups and nested descriptor references.
package devfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/onkernel/happypath/lib/logger"
	"github.com/samber/lo"
)

// DefaultRegistryURL is the plugin registry consulted for component ids
const DefaultRegistryURL = "https://che-plugin-registry-main.surge.sh/v3/plugins"

// Discoverer resolves every image referenced by a descriptor
type Discoverer interface {
	Discover(ctx context.Context, locator string) ([]string, error)
}

type discoverer struct {
	source      Source
	registryURL string
}

// NewDiscoverer creates a Discoverer reading documents through src and
// resolving component ids against registryURL
func NewDiscoverer(src Source, registryURL string) Discoverer {
	if registryURL == "" {
		registryURL = DefaultRegistryURL
	}
	return &discoverer{
		source:      src,
		registryURL: strings.TrimRight(registryURL, "/"),
	}
}

// MetaURL returns the registry document location for a component id
func (d *discoverer) MetaURL(componentID string) string {
	return fmt.Sprintf("%s/%s/meta.yaml", d.registryURL, componentID)
}

// discovery holds the state of one top-level Discover call
type discovery struct {
	images  []string
	visited map[string]bool
}

// Discover returns the deduplicated image names referenced by the descriptor
// at locator, in the order they were first found. Fetch failures are returned
// as-is and abort the whole discovery.
func (d *discoverer) Discover(ctx context.Context, locator string) ([]string, error) {
	state := &discovery{visited: make(map[string]bool)}
	if err := d.discover(ctx, locator, state); err != nil {
		return nil, err
	}

	images := lo.Map(state.images, func(name string, _ int) string { return cleanName(name) })
	images = lo.Filter(images, func(name string, _ int) bool { return name != "" })
	return lo.Uniq(images), nil
}

func (d *discoverer) discover(ctx context.Context, locator string, state *discovery) error {
	log := logger.FromContext(ctx)

	// Acyclic graphs never revisit a locator; cycles are cut here.
	if state.visited[locator] {
		log.WarnContext(ctx, "skipping already visited descriptor", "locator", locator)
		return nil
	}
	state.visited[locator] = true

	content, err := d.source.Fetch(ctx, locator)
	if err != nil {
		return err
	}

	for _, image := range scan(imagePattern, content) {
		log.InfoContext(ctx, fmt.Sprintf("Found %s in happy path %s", image, locator))
		state.images = append(state.images, image)
	}

	for _, componentID := range scan(componentPattern, content) {
		componentID = cleanName(componentID)
		if componentID == "" {
			continue
		}
		log.InfoContext(ctx, fmt.Sprintf("Searching in id %s", componentID))

		meta, err := d.source.Fetch(ctx, d.MetaURL(componentID))
		if err != nil {
			return fmt.Errorf("component %s: %w", componentID, err)
		}
		for _, image := range scan(imagePattern, meta) {
			log.InfoContext(ctx, fmt.Sprintf("Found %s in component id %s", image, componentID))
			state.images = append(state.images, image)
		}
	}

	for _, reference := range scan(referencePattern, content) {
		reference = cleanName(reference)
		if reference == "" {
			continue
		}
		log.InfoContext(ctx, fmt.Sprintf("Searching in reference %s", reference))

		before := len(state.images)
		if err := d.discover(ctx, reference, state); err != nil {
			return fmt.Errorf("reference %s: %w", reference, err)
		}
		log.InfoContext(ctx, fmt.Sprintf("Found images %s in reference %s",
			strings.Join(state.images[before:], ","), reference))
	}

	return nil
}
