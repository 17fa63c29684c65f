package images

import (
	"context"
	"fmt"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// Checker verifies that an image can be resolved in its registry
type Checker interface {
	// Check returns the manifest digest the registry serves for image
	Check(ctx context.Context, image string) (string, error)
}

type registryChecker struct {
	keychain authn.Keychain
}

// NewRegistryChecker creates a Checker that issues a manifest HEAD request
// using credentials from the local docker config
func NewRegistryChecker() Checker {
	return &registryChecker{keychain: authn.DefaultKeychain}
}

func (c *registryChecker) Check(ctx context.Context, image string) (string, error) {
	normalized, err := ParseNormalizedRef(image)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidName, image, err)
	}

	ref, err := name.ParseReference(normalized.String())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidName, image, err)
	}

	desc, err := remote.Head(ref, remote.WithContext(ctx), remote.WithAuthFromKeychain(c.keychain))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrImageUnavailable, normalized, err)
	}
	return desc.Digest.String(), nil
}
