package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
)

func TestSearchMovies_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BATMAN", r.URL.Query().Get("s"))
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		assert.Empty(t, r.URL.Query().Get("page"))
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"Search":[{"Title":"Batman Begins","Year":"2005","imdbID":"tt0372784","Type":"movie"},
			{"Title":"Batman","Year":"1989","imdbID":"tt0096895","Type":"movie"}],"totalResults":"2","Response":"True"}`)
	}))
	defer server.Close()

	client := NewOMDbClient(server.URL, "secret", time.Second)

	result, err := client.SearchMovies(context.Background(), "BATMAN")

	require.NoError(t, err)
	require.Len(t, result.Search, 2)
	assert.Equal(t, 2, result.TotalResults)
	assert.Equal(t, "tt0372784", result.Search[0].ImdbID)
	assert.Equal(t, "Batman", result.Search[1].Title)
}

func TestSearchMovies_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"Response":"False","Error":"Movie not found!"}`)
	}))
	defer server.Close()

	client := NewOMDbClient(server.URL, "k", time.Second)

	result, err := client.SearchMovies(context.Background(), "QWERTYUIOP")

	require.NoError(t, err)
	assert.Empty(t, result.Search)
	assert.Zero(t, result.TotalResults)
}

func TestSearchMovies_FollowsPages(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		page := r.URL.Query().Get("page")
		w.WriteHeader(http.StatusOK)
		switch page {
		case "":
			fmt.Fprint(w, `{"Search":[`)
			for i := 0; i < 10; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"Title":"M%d","imdbID":"tt%d"}`, i, i)
			}
			fmt.Fprint(w, `],"totalResults":"12","Response":"True"}`)
		case "2":
			fmt.Fprint(w, `{"Search":[{"Title":"M10","imdbID":"tt10"},{"Title":"M11","imdbID":"tt11"}],"totalResults":"12","Response":"True"}`)
		default:
			t.Errorf("unexpected page %q", page)
		}
	}))
	defer server.Close()

	client := NewOMDbClient(server.URL, "k", time.Second)
	client.SearchPages = 5

	result, err := client.SearchMovies(context.Background(), "M")

	require.NoError(t, err)
	assert.Len(t, result.Search, 12)
	assert.Equal(t, "tt11", result.Search[11].ImdbID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearchMovies_LaterPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"Search":[`)
		for i := 0; i < 10; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"Title":"M%d","imdbID":"tt%d"}`, i, i)
		}
		fmt.Fprint(w, `],"totalResults":"25","Response":"True"}`)
	}))
	defer server.Close()

	client := NewOMDbClient(server.URL, "k", time.Second)
	client.SearchPages = 3

	result, err := client.SearchMovies(context.Background(), "M")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "page 2")
}

func TestSearchMovies_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOMDbClient(server.URL, "k", time.Second)

	_, err := client.SearchMovies(context.Background(), "X")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "received non-200 status code: 500")
}

func TestFetchMovieDetail_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt0372784", r.URL.Query().Get("i"))
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"Title":"Batman Begins","Year":"2005","Rated":"PG-13","Country":"United States, United Kingdom",
			"imdbID":"tt0372784","Response":"True"}`)
	}))
	defer server.Close()

	client := NewOMDbClient(server.URL, "k", time.Second)

	detail, err := client.FetchMovieDetail(context.Background(), "tt0372784")

	require.NoError(t, err)
	assert.Equal(t, domain.MovieDetail{
		ImdbID:  "tt0372784",
		Title:   "Batman Begins",
		Year:    2005,
		Country: "United States, United Kingdom",
	}, *detail)
}

func TestFetchMovieDetail_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"Response":"False","Error":"Incorrect IMDb ID."}`)
	}))
	defer server.Close()

	client := NewOMDbClient(server.URL, "k", time.Second)

	_, err := client.FetchMovieDetail(context.Background(), "tt-bad")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchMovieDetail_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"Title": "Heat"`)
	}))
	defer server.Close()

	client := NewOMDbClient(server.URL, "k", time.Second)

	_, err := client.FetchMovieDetail(context.Background(), "tt1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestFetchMovieDetail_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewOMDbClient(server.URL, "k", 50*time.Millisecond)

	_, err := client.FetchMovieDetail(context.Background(), "tt1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestParseYear(t *testing.T) {
	testCases := []struct {
		raw  string
		want int
	}{
		{"2008", 2008},
		{"2005–2010", 2005},
		{"2019–", 2019},
		{"N/A", 0},
		{"", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, parseYear(tc.raw))
		})
	}
}
