package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout   = 20 * time.Second
	maxResponseBytes = 8 << 20
	defaultUserAgent = "meetups-sync/1.0"
)

// getSnapshot performs one GET and returns the body of a 2xx response.
// Every failure is reported as a *SourceFetchError for provider.
func getSnapshot(
	ctx context.Context,
	client *http.Client,
	provider string,
	endpoint string,
	query url.Values,
	header http.Header,
) ([]byte, error) {
	target, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, &SourceFetchError{Provider: provider, Err: fmt.Errorf("parse endpoint: %w", err)}
	}
	merged := target.Query()
	for key, values := range query {
		merged.Del(key)
		for _, value := range values {
			merged.Add(key, value)
		}
	}
	target.RawQuery = merged.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &SourceFetchError{Provider: provider, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &SourceFetchError{Provider: provider, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &SourceFetchError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("read response: %w", err),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SourceFetchError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return body, nil
}

func newHTTPClient(client *http.Client, timeout time.Duration) *http.Client {
	if client != nil {
		return client
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
