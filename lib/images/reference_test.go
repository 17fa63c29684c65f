package images

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNormalizedRef(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"quay.io/eclipse/che-e2e:next", "quay.io/eclipse/che-e2e:next", false},
		{"alpine", "docker.io/library/alpine:latest", false},
		{"alpine:3.18", "docker.io/library/alpine:3.18", false},
		{"127.0.0.1:5000/che/plugin", "127.0.0.1:5000/che/plugin:latest", false},
		{"quay.io/eclipse/che-theia@sha256:ef8720bb0bd891d8beed86684fe6cf5c0be682f7cf19708c4fb1f9cf6536e1a7", "quay.io/eclipse/che-theia@sha256:ef8720bb0bd891d8beed86684fe6cf5c0be682f7cf19708c4fb1f9cf6536e1a7", false},

		{"", "", true},
		{"invalid::", "", true},
		{"has spaces", "", true},
		{"UPPERCASE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseNormalizedRef(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, result.String())
		})
	}
}

func TestNormalizedRefParts(t *testing.T) {
	t.Run("Tagged", func(t *testing.T) {
		ref, err := ParseNormalizedRef("quay.io/eclipse/che-e2e:7.40")
		require.NoError(t, err)
		require.False(t, ref.IsDigest())
		require.Equal(t, "quay.io/eclipse/che-e2e", ref.Repository())
		require.Equal(t, "7.40", ref.Tag())
		require.Empty(t, ref.Digest())
	})

	t.Run("Digest", func(t *testing.T) {
		ref, err := ParseNormalizedRef("alpine@sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
		require.NoError(t, err)
		require.True(t, ref.IsDigest())
		require.Equal(t, "docker.io/library/alpine", ref.Repository())
		require.Empty(t, ref.Tag())
		require.Equal(t, "sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", ref.Digest())
	})
}
