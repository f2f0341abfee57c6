package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrResolutionFailed marks a link source that could not be turned into
// text. Callers substitute a fallback line instead of aborting; one bad
// source must not block a chat turn.
var ErrResolutionFailed = errors.New("source: resolution failed")

// Resolver turns a link-kind source URL into plain text.
type Resolver interface {
	ResolveLink(ctx context.Context, url string) (string, error)
}

// HTTPResolver fetches link content over HTTP with a bounded read.
type HTTPResolver struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPResolver(timeout time.Duration, maxBytes int64) *HTTPResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 256 << 10
	}
	return &HTTPResolver{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

func (r *HTTPResolver) ResolveLink(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrResolutionFailed, err)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", ErrResolutionFailed, url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("%w: fetch %s: status %d", ErrResolutionFailed, url, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, r.maxBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrResolutionFailed, url, err)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", fmt.Errorf("%w: %s resolved to empty content", ErrResolutionFailed, url)
	}
	return text, nil
}

// StaticResolver serves pre-seeded content, for tests and offline runs.
type StaticResolver struct {
	Content map[string]string
}

func (r *StaticResolver) ResolveLink(_ context.Context, url string) (string, error) {
	if text, ok := r.Content[url]; ok {
		return text, nil
	}
	return "", fmt.Errorf("%w: no content for %s", ErrResolutionFailed, url)
}
