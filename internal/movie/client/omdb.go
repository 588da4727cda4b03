package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
)

const (
	defaultOMDbURL = "https://www.omdbapi.com/"
	omdbPageSize   = 10
)

// OMDbClient talks to the movie search and detail API.
type OMDbClient struct {
	client      *http.Client
	BaseURL     string
	APIKey      string
	SearchPages int
}

type omdbSearchResponse struct {
	Search       []domain.MovieStub `json:"Search"`
	TotalResults string             `json:"totalResults"`
	Response     string             `json:"Response"`
	Error        string             `json:"Error"`
}

type omdbDetailResponse struct {
	ImdbID   string `json:"imdbID"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Country  string `json:"Country"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// NewOMDbClient creates a client; a zero timeout uses the default.
func NewOMDbClient(baseURL, apiKey string, timeout time.Duration) *OMDbClient {
	if baseURL == "" {
		baseURL = defaultOMDbURL
	}
	return &OMDbClient{
		client:      newHTTPClient(timeout),
		BaseURL:     baseURL,
		APIKey:      apiKey,
		SearchPages: 1,
	}
}

// SearchMovies runs a title search. An OMDb "Response":"False" answer is an
// empty result, not an error. With SearchPages > 1 further result pages are
// requested while the upstream reports more hits; any failed page fails the
// whole search.
func (c *OMDbClient) SearchMovies(ctx context.Context, query string) (*domain.SearchResult, error) {
	result := &domain.SearchResult{Search: []domain.MovieStub{}}

	pages := c.SearchPages
	if pages < 1 {
		pages = 1
	}

	for page := 1; page <= pages; page++ {
		params := url.Values{}
		params.Set("s", query)
		params.Set("apikey", c.APIKey)
		if page > 1 {
			params.Set("page", strconv.Itoa(page))
		}

		var resp omdbSearchResponse
		if err := getJSON(ctx, c.client, c.BaseURL+"?"+params.Encode(), &resp); err != nil {
			// a truncated result must not be cached as the answer
			return nil, fmt.Errorf("failed to search %q page %d: %w", query, page, err)
		}

		if !strings.EqualFold(resp.Response, "True") {
			break
		}

		result.Search = append(result.Search, resp.Search...)
		if total, err := strconv.Atoi(resp.TotalResults); err == nil {
			result.TotalResults = total
		}

		if len(result.Search) >= result.TotalResults || len(resp.Search) < omdbPageSize {
			break
		}
	}

	return result, nil
}

// FetchMovieDetail keeps imdbID, Title, Year and Country of a movie.
func (c *OMDbClient) FetchMovieDetail(ctx context.Context, imdbID string) (*domain.MovieDetail, error) {
	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("apikey", c.APIKey)

	var resp omdbDetailResponse
	if err := getJSON(ctx, c.client, c.BaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to get movie %s: %w", imdbID, err)
	}

	if !strings.EqualFold(resp.Response, "True") {
		return nil, fmt.Errorf("%w: movie %s: %s", domain.ErrNotFound, imdbID, resp.Error)
	}

	return &domain.MovieDetail{
		ImdbID:  resp.ImdbID,
		Title:   resp.Title,
		Year:    parseYear(resp.Year),
		Country: resp.Country,
	}, nil
}

// parseYear reads the leading year of values like "2008" or "2005–2010".
func parseYear(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	year, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0
	}
	return year
}
