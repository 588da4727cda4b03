// Package storetest holds the behaviour every domain.CacheStore must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) domain.CacheStore

// Run executes the contract suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("search miss then hit", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, found, err := s.GetSearch(ctx, "BATMAN")
		require.NoError(t, err)
		assert.False(t, found)

		want := &domain.SearchResult{
			Search: []domain.MovieStub{
				{ImdbID: "tt0372784", Title: "Batman Begins"},
				{ImdbID: "tt0096895", Title: "Batman"},
			},
			TotalResults: 2,
		}
		require.NoError(t, s.PutSearch(ctx, "BATMAN", want))

		got, found, err := s.GetSearch(ctx, "BATMAN")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want.TotalResults, got.TotalResults)
		assert.Equal(t, want.Search[0].ImdbID, got.Search[0].ImdbID)
		assert.Equal(t, want.Search[1].Title, got.Search[1].Title)
	})

	t.Run("empty search result is cached", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.PutSearch(ctx, "ZZZ", &domain.SearchResult{}))

		got, found, err := s.GetSearch(ctx, "ZZZ")
		require.NoError(t, err)
		require.True(t, found)
		assert.Empty(t, got.Search)
	})

	t.Run("movie keeps country order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		detail := &domain.MovieDetail{
			ImdbID:  "tt0000001",
			Title:   "Crossing",
			Year:    2001,
			Country: "USA, Canada, Mexico",
		}
		require.NoError(t, s.PutMovie(ctx, detail, []string{"USA", "Canada", "Mexico"}))

		record, found, err := s.GetMovie(ctx, "tt0000001")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, *detail, record.Detail)
		assert.Equal(t, []string{"USA", "Canada", "Mexico"}, record.Countries)

		_, found, err = s.GetMovie(ctx, "tt9999999")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("movie without countries", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		detail := &domain.MovieDetail{ImdbID: "tt0000002", Title: "Nowhere", Year: 1999}
		require.NoError(t, s.PutMovie(ctx, detail, nil))

		record, found, err := s.GetMovie(ctx, "tt0000002")
		require.NoError(t, err)
		require.True(t, found)
		assert.Empty(t, record.Countries)
	})

	t.Run("repeated movie put is harmless", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		detail := &domain.MovieDetail{ImdbID: "tt0000003", Title: "Twice", Year: 2010, Country: "UK"}
		require.NoError(t, s.PutMovie(ctx, detail, []string{"UK"}))
		require.NoError(t, s.PutMovie(ctx, detail, []string{"UK"}))

		record, found, err := s.GetMovie(ctx, "tt0000003")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []string{"UK"}, record.Countries)
	})

	t.Run("flag with and without url", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		url := "https://flagcdn.com/us.svg"
		require.NoError(t, s.PutFlag(ctx, &domain.CountryFlag{CountryName: "USA", FlagURL: &url}))
		require.NoError(t, s.PutFlag(ctx, &domain.CountryFlag{CountryName: "Atlantis"}))

		flag, found, err := s.GetFlag(ctx, "USA")
		require.NoError(t, err)
		require.True(t, found)
		require.NotNil(t, flag.FlagURL)
		assert.Equal(t, url, *flag.FlagURL)

		flag, found, err = s.GetFlag(ctx, "Atlantis")
		require.NoError(t, err)
		require.True(t, found, "a nil flag is still a cached answer")
		assert.Nil(t, flag.FlagURL)

		_, found, err = s.GetFlag(ctx, "usa")
		require.NoError(t, err)
		assert.False(t, found, "flag keys are case-sensitive")
	})

	t.Run("movie countries are not cached flags", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		detail := &domain.MovieDetail{ImdbID: "tt0000004", Title: "Abroad", Year: 2004, Country: "France"}
		require.NoError(t, s.PutMovie(ctx, detail, []string{"France"}))

		_, found, err := s.GetFlag(ctx, "France")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("key spaces are independent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.PutSearch(ctx, "SAME", &domain.SearchResult{TotalResults: 1,
			Search: []domain.MovieStub{{ImdbID: "SAME", Title: "x"}}}))

		_, found, err := s.GetMovie(ctx, "SAME")
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = s.GetFlag(ctx, "SAME")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("dump", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		url := "https://flagcdn.com/gb.svg"
		require.NoError(t, s.PutSearch(ctx, "HEAT", &domain.SearchResult{TotalResults: 1,
			Search: []domain.MovieStub{{ImdbID: "tt0113277", Title: "Heat"}}}))
		require.NoError(t, s.PutMovie(ctx, &domain.MovieDetail{ImdbID: "tt0113277", Title: "Heat",
			Year: 1995, Country: "USA, UK"}, []string{"USA", "UK"}))
		require.NoError(t, s.PutFlag(ctx, &domain.CountryFlag{CountryName: "UK", FlagURL: &url}))
		require.NoError(t, s.PutFlag(ctx, &domain.CountryFlag{CountryName: "USA"}))

		dump, err := s.Dump(ctx)
		require.NoError(t, err)

		require.Contains(t, dump.MovieSearch, "HEAT")
		assert.Equal(t, 1, dump.MovieSearch["HEAT"].TotalResults)
		require.Contains(t, dump.MovieDetails, "tt0113277")
		assert.Equal(t, 1995, dump.MovieDetails["tt0113277"].Year)
		assert.Len(t, dump.CountryFlags, 2)
		require.NotNil(t, dump.CountryFlags["UK"])
		assert.Equal(t, url, *dump.CountryFlags["UK"])
		assert.Contains(t, dump.CountryFlags, "USA")
		assert.Nil(t, dump.CountryFlags["USA"])
	})

	t.Run("concurrent access", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		var wg sync.WaitGroup
		numGoroutines := 20

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				name := fmt.Sprintf("country-%d", i%5)
				url := "https://flagcdn.com/" + name + ".svg"
				assert.NoError(t, s.PutFlag(ctx, &domain.CountryFlag{CountryName: name, FlagURL: &url}))

				id := fmt.Sprintf("tt%07d", i%7)
				assert.NoError(t, s.PutMovie(ctx, &domain.MovieDetail{ImdbID: id, Title: id, Country: name},
					[]string{name}))

				_, _, err := s.GetFlag(ctx, name)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		dump, err := s.Dump(ctx)
		require.NoError(t, err)
		assert.Len(t, dump.CountryFlags, 5)
		assert.Len(t, dump.MovieDetails, 7)
	})
}
