package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
)

const defaultTimeout = 10 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getJSON issues one GET and decodes a 200 body into dst. 404 maps to
// ErrNotFound, every other failure to ErrUpstreamUnavailable.
func getJSON(ctx context.Context, client *http.Client, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: received 404", domain.ErrNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: received non-200 status code: %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
