package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
)

const defaultCountriesURL = "https://restcountries.com/v3.1/name"

// RestCountriesClient interacts with the REST Countries API.
type RestCountriesClient struct {
	client  *http.Client
	BaseURL string
}

type countryResponse struct {
	Flags struct {
		SVG string `json:"svg"`
	} `json:"flags"`
}

// NewRestCountriesClient creates a client; a zero timeout uses the default.
func NewRestCountriesClient(baseURL string, timeout time.Duration) *RestCountriesClient {
	if baseURL == "" {
		baseURL = defaultCountriesURL
	}
	return &RestCountriesClient{
		client:  newHTTPClient(timeout),
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchCountryFlag looks a country up by its exact full name and returns the
// first match's SVG flag URL. A match without a flag yields a nil URL; no
// match yields ErrNotFound.
func (c *RestCountriesClient) FetchCountryFlag(ctx context.Context, countryName string) (*string, error) {
	endpoint := fmt.Sprintf("%s/%s?fullText=true", c.BaseURL, url.PathEscape(countryName))

	var resp []countryResponse
	if err := getJSON(ctx, c.client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to get flag for %q: %w", countryName, err)
	}

	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: country %q", domain.ErrNotFound, countryName)
	}

	if resp[0].Flags.SVG == "" {
		return nil, nil
	}
	flag := resp[0].Flags.SVG
	return &flag, nil
}
