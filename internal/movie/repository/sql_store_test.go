package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/cache/storetest"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	db, err := Open(context.Background(), Options{Driver: DriverSQLite, DSN: SQLiteDSN(path)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.CacheStore {
		return NewSQLStore(newTestDB(t))
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, Migrate(context.Background(), db))
}

func TestSQLStore_MovieCountryRows(t *testing.T) {
	db := newTestDB(t)
	s := NewSQLStore(db)
	ctx := context.Background()

	detail := &domain.MovieDetail{ImdbID: "tt1", Title: "Trip", Year: 2020, Country: "USA, Canada, Mexico"}
	require.NoError(t, s.PutMovie(ctx, detail, []string{"USA", "Canada", "Mexico"}))

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM moviecountry WHERE imdb_id = 'tt1'`))
	assert.Equal(t, 3, count)

	var placeholders int
	require.NoError(t, db.Get(&placeholders, `SELECT COUNT(*) FROM country WHERE resolved = FALSE`))
	assert.Equal(t, 3, placeholders)
}

func TestSQLStore_PutMovieIsAtomic(t *testing.T) {
	db := newTestDB(t)
	s := NewSQLStore(db)
	ctx := context.Background()

	// placeholder country rows cannot be written, so the movie insert must not survive
	_, err := db.Exec(`DROP TABLE country`)
	require.NoError(t, err)

	err = s.PutMovie(ctx, &domain.MovieDetail{ImdbID: "tt2", Title: "Half", Country: "UK"}, []string{"UK"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)

	var movies int
	require.NoError(t, db.Get(&movies, `SELECT COUNT(*) FROM movie WHERE imdb_id = 'tt2'`))
	assert.Zero(t, movies, "movie row must roll back with its countries")
}

func TestSQLStore_PlaceholderResolvedByPutFlag(t *testing.T) {
	s := NewSQLStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.PutMovie(ctx, &domain.MovieDetail{ImdbID: "tt3", Country: "Japan"}, []string{"Japan"}))

	url := "https://flagcdn.com/jp.svg"
	require.NoError(t, s.PutFlag(ctx, &domain.CountryFlag{CountryName: "Japan", FlagURL: &url}))

	flag, found, err := s.GetFlag(ctx, "Japan")
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, flag.FlagURL)
	assert.Equal(t, url, *flag.FlagURL)
}

func TestSQLStore_ClosedDatabase(t *testing.T) {
	db := newTestDB(t)
	s := NewSQLStore(db)
	require.NoError(t, db.Close())

	_, _, err := s.GetFlag(context.Background(), "USA")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}
