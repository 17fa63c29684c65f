package devfile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// docServer serves fixed documents by path and records every request path
type docServer struct {
	*httptest.Server
	mu       sync.Mutex
	docs     map[string]string
	requests []string
}

func newDocServer(t *testing.T, docs map[string]string) *docServer {
	s := &docServer{docs: docs}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.Path)
		s.mu.Unlock()

		body, ok := s.docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *docServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDiscoverDirectImage(t *testing.T) {
	srv := newDocServer(t, map[string]string{
		"/devfile.yaml": "image: my-image:foo",
	})
	d := NewDiscoverer(NewSource(srv.Client()), srv.URL+"/plugins")

	images, err := d.Discover(context.Background(), srv.URL+"/devfile.yaml")
	require.NoError(t, err)
	require.Equal(t, []string{"my-image:foo"}, images)
}

func TestDiscoverComponentID(t *testing.T) {
	srv := newDocServer(t, map[string]string{
		"/plugins/my-plugin/meta.yaml": "image: my-plugin-image:bar\nimage: my-plugin-sidecar:baz\n",
	})
	d := NewDiscoverer(NewSource(srv.Client()), srv.URL+"/plugins/")

	locator := writeFile(t, "devfile.yaml", "id: my-plugin")
	images, err := d.Discover(context.Background(), locator)
	require.NoError(t, err)
	require.Equal(t, []string{"my-plugin-image:bar", "my-plugin-sidecar:baz"}, images)
	require.Equal(t, []string{"/plugins/my-plugin/meta.yaml"}, srv.Requests())
}

func TestDiscoverComponentIDFoldedImages(t *testing.T) {
	const (
		image1 = "quay.io/eclipse/che-theia@sha256:ef8720bb0bd891d8beed86684fe6cf5c0be682f7cf19708c4fb1f9cf6536e1a7"
		image2 = "quay.io/eclipse/che-theia-endpoint-runtime-binary@sha256:77bed604b46d12a4d7c0819272ec6dbce88ff18209e21d75d824af833f131ed8"
	)
	meta := `
      containers:
      - name: theia-ide
        image: '` + image1 + `'
        env:
          - name: THEIA_PLUGINS
            value: 'local-dir:///plugins'
    initContainers:
      - name: remote-runtime-injector
        image: >-
          ` + image2 + `
        env:
          - name: PLUGIN_REMOTE_ENDPOINT_EXECUTABLE
            value: /remote-endpoint/plugin-remote-endpoint`

	srv := newDocServer(t, map[string]string{"/plugins/my-plugin/meta.yaml": meta})
	d := NewDiscoverer(NewSource(srv.Client()), srv.URL+"/plugins")

	locator := writeFile(t, "devfile.yaml", "id: my-plugin")
	images, err := d.Discover(context.Background(), locator)
	require.NoError(t, err)
	require.Equal(t, []string{image1, image2}, images)
}

func TestDiscoverReference(t *testing.T) {
	srv := newDocServer(t, map[string]string{
		"/external.yaml": "image: my-image:reference",
	})
	d := NewDiscoverer(NewSource(srv.Client()), srv.URL+"/plugins")

	locator := writeFile(t, "devfile.yaml", "reference: "+srv.URL+"/external.yaml")
	images, err := d.Discover(context.Background(), locator)
	require.NoError(t, err)
	require.Equal(t, []string{"my-image:reference"}, images)
}

func TestDiscoverAllPatternsInOrder(t *testing.T) {
	srv := newDocServer(t, map[string]string{
		"/plugins/redhat/java/latest/meta.yaml": "image: plugin:1",
		"/nested.yaml":                          "image: nested:1\nimage: \"direct:1\"\n",
	})
	d := NewDiscoverer(NewSource(srv.Client()), srv.URL+"/plugins")

	content := `components:
  - reference: ` + srv.URL + `/nested.yaml
  - id: redhat/java/latest
  - image: "direct:1"
  - image: 'direct:2'
  - image: ""
`
	images, err := d.Discover(context.Background(), writeFile(t, "devfile.yaml", content))
	require.NoError(t, err)
	require.Equal(t, []string{"direct:1", "direct:2", "plugin:1", "nested:1"}, images)
}

func TestDiscoverRegistryDocumentIsNotFollowed(t *testing.T) {
	srv := newDocServer(t, map[string]string{
		"/plugins/outer/meta.yaml": "image: outer:1\nid: inner\nreference: /does/not/exist.yaml\n",
	})
	d := NewDiscoverer(NewSource(srv.Client()), srv.URL+"/plugins")

	images, err := d.Discover(context.Background(), writeFile(t, "devfile.yaml", "id: outer"))
	require.NoError(t, err)
	require.Equal(t, []string{"outer:1"}, images)
	require.Equal(t, []string{"/plugins/outer/meta.yaml"}, srv.Requests())
}

func TestDiscoverCycleTerminates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(a, []byte("image: a:1\nreference: "+b+"\n"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("image: b:1\nreference: "+a+"\n"), 0644))

	d := NewDiscoverer(NewSource(nil), "http://127.0.0.1:0/plugins")
	images, err := d.Discover(context.Background(), a)
	require.NoError(t, err)
	require.Equal(t, []string{"a:1", "b:1"}, images)
}

func TestDiscoverSourceUnavailable(t *testing.T) {
	srv := newDocServer(t, map[string]string{
		"/devfile.yaml": "id: missing-plugin",
	})
	d := NewDiscoverer(NewSource(srv.Client()), srv.URL+"/plugins")

	t.Run("MissingFile", func(t *testing.T) {
		_, err := d.Discover(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("MissingRegistryEntry", func(t *testing.T) {
		_, err := d.Discover(context.Background(), srv.URL+"/devfile.yaml")
		require.ErrorIs(t, err, ErrSourceUnavailable)
		require.Contains(t, err.Error(), "missing-plugin")
	})

	t.Run("MissingReference", func(t *testing.T) {
		locator := writeFile(t, "devfile.yaml", "reference: "+srv.URL+"/gone.yaml")
		_, err := d.Discover(context.Background(), locator)
		require.ErrorIs(t, err, ErrSourceUnavailable)
	})
}

func TestScan(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"Empty", "", []string{}},
		{"Single", "image: foo:bar", []string{"foo:bar"}},
		{"Indented", "  - image: foo:bar\r\n", []string{"foo:bar"}},
		{"NotAWord", "baseimage: foo:bar", []string{}},
		{"Folded", "image: >-\n\n    foo:bar\nother: x", []string{"foo:bar"}},
		{"Literal", "image: |\n  foo:bar", []string{"foo:bar"}},
		{"TrailingIndicator", "image: >-", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, scan(imagePattern, tt.text))
		})
	}
}

func TestMetaURL(t *testing.T) {
	d := NewDiscoverer(NewSource(nil), "").(*discoverer)
	require.Equal(t,
		"https://che-plugin-registry-main.surge.sh/v3/plugins/my-plugin/meta.yaml",
		d.MetaURL("my-plugin"))
}
