package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PageFetcher fetches a page body as text. Implementations report transport
// failures and non-2xx statuses as errors.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StatusError is returned for non-2xx responses so callers can distinguish
// block signals from plain transport failures.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// IsBlockSignal reports whether an error is a definitive block response.
// 403 is the usual rate-limit/WAF answer; 404 on a page we expect to exist is
// treated the same because the sources serve it for delisted sections.
func IsBlockSignal(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusForbidden || statusErr.StatusCode == http.StatusNotFound
}

// HTTPFetcher fetches pages over HTTP with a fixed header set.
type HTTPFetcher struct {
	client  *http.Client
	headers map[string]string
}

// NewHTTPFetcher creates a fetcher with a sane timeout. The headers map comes
// from the source adapter and is sent verbatim on every request.
func NewHTTPFetcher(headers map[string]string) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: 20 * time.Second},
		headers: headers,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch url %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body %s: %w", url, err)
	}
	return string(body), nil
}
