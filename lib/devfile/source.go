package devfile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Source fetches the text of a descriptor locator or registry document
type Source interface {
	// Fetch returns the document text. Locators starting with "http" are
	// fetched with GET, anything else is read from the filesystem.
	Fetch(ctx context.Context, locator string) (string, error)
}

type source struct {
	client *http.Client
}

// NewSource creates a Source using client for HTTP locators.
// A nil client means http.DefaultClient.
func NewSource(client *http.Client) Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &source{client: client}
}

// IsRemote reports whether a locator is fetched over HTTP
func IsRemote(locator string) bool {
	return strings.HasPrefix(locator, "http")
}

func (s *source) Fetch(ctx context.Context, locator string) (string, error) {
	if IsRemote(locator) {
		return s.get(ctx, locator)
	}

	data, err := os.ReadFile(locator)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, locator, err)
	}
	return string(data), nil
}

func (s *source) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request for %s: %v", ErrSourceUnavailable, url, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", ErrSourceUnavailable, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body of %s: %v", ErrSourceUnavailable, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: get %s: status %d", ErrSourceUnavailable, url, resp.StatusCode)
	}
	return string(body), nil
}
