package images

import (
	"github.com/distribution/reference"
)

// NormalizedRef is a validated image reference in its fully qualified form.
// It can be either a tagged reference (e.g., "docker.io/library/alpine:latest")
// or a digest reference (e.g., "quay.io/eclipse/che-theia@sha256:abc123...").
type NormalizedRef struct {
	raw        string
	repository string
	tag        string // empty if digest ref
	digest     string // empty if tag ref
}

// ParseNormalizedRef validates and normalizes an image name found in a descriptor.
// Examples:
//   - "alpine" -> "docker.io/library/alpine:latest"
//   - "quay.io/eclipse/che-e2e:next" -> unchanged
//   - "alpine@sha256:abc..." -> "docker.io/library/alpine@sha256:abc..."
func ParseNormalizedRef(s string) (*NormalizedRef, error) {
	named, err := reference.ParseNormalizedNamed(s)
	if err != nil {
		return nil, err
	}

	ref := &NormalizedRef{
		repository: reference.Domain(named) + "/" + reference.Path(named),
	}

	if canonical, ok := named.(reference.Canonical); ok {
		ref.digest = canonical.Digest().String()
		ref.raw = canonical.String()
		return ref, nil
	}

	tagged := reference.TagNameOnly(named)
	if t, ok := tagged.(reference.Tagged); ok {
		ref.tag = t.Tag()
	}
	ref.raw = tagged.String()

	return ref, nil
}

// String returns the full normalized reference.
func (r *NormalizedRef) String() string {
	return r.raw
}

// IsDigest returns true if this reference pins a digest (@sha256:...).
func (r *NormalizedRef) IsDigest() bool {
	return r.digest != ""
}

// Repository returns the repository path without tag or digest.
func (r *NormalizedRef) Repository() string {
	return r.repository
}

// Tag returns the tag, or empty string for digest references.
func (r *NormalizedRef) Tag() string {
	return r.tag
}

// Digest returns the pinned digest, or empty string for tagged references.
func (r *NormalizedRef) Digest() string {
	return r.digest
}
