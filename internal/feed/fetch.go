// Package feed retrieves and extracts public-holiday events from external
// iCalendar feeds.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Fetcher retrieves raw feed bytes from a URL or a local path.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a feed fetcher with a bounded request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads the feed at location. HTTP locations go over the network;
// anything else is read from the local filesystem. Failures are returned as
// *FetchError so the sync boundary can record them without aborting.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if isHTTP(location) {
		return f.fetchURL(ctx, location)
	}

	body, err := os.ReadFile(location)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	return body, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Err: fmt.Errorf("feed returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	return body, nil
}

func isHTTP(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
