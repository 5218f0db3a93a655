// Package geo provides the geo-lookup collaborator used to suggest an
// initial default calendar from a client IP address.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Suggestion is a calendar proposal for a looked-up location.
type Suggestion struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	IcalURL  string `json:"ical_url"`
}

// Client talks to the geo-calendar lookup service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geo lookup client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Suggest asks the service for a calendar suggestion. ip may be empty, in
// which case the service decides from the requesting address. A nil
// suggestion with nil error means the service had nothing to offer.
func (c *Client) Suggest(ctx context.Context, ip string) (*Suggestion, error) {
	endpoint := c.baseURL + "/calendar"
	if ip != "" {
		endpoint += "?ip=" + url.QueryEscape(ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNoContent, http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("geo service returned status %d", resp.StatusCode)
	}

	var suggestion Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestion); err != nil {
		return nil, fmt.Errorf("decoding geo suggestion: %w", err)
	}

	if suggestion.Name == "" {
		return nil, nil
	}
	return &suggestion, nil
}
