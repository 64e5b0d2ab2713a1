package store

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtor-io/whattowatch/models"
)

func movie(id int, title string, liked, bookmarked bool) *models.StoredMovie {
	return &models.StoredMovie{
		ID:           id,
		Title:        title,
		Overview:     "overview of " + title,
		BackdropPath: "/b.jpg",
		GenreIDs:     "28,12",
		Popularity:   10.5,
		ReleaseDate:  "2001-01-01",
		VoteAverage:  6.6,
		Liked:        liked,
		Bookmarked:   bookmarked,
	}
}

// runContract checks behavior every Store implementation shares. open
// must return an empty store.
func runContract(t *testing.T, open func(t *testing.T) Store) {
	for _, tc := range []struct {
		name string
		f    func(t *testing.T, s Store)
	}{
		{"InsertAndGet", testInsertAndGet},
		{"Flags", testFlags},
		{"UpdateAndDelete", testUpdateAndDelete},
		{"ListsSortedByTitle", testListsSortedByTitle},
		{"EmptyListIsNotNil", testEmptyListIsNotNil},
		{"ConcurrentInsertsConflict", testConcurrentInsertsConflict},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.f(t, open(t))
		})
	}
}

func testInsertAndGet(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, movie(1, "Alien", true, false)))

	got, err := s.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, movie(1, "Alien", true, false), got)

	_, err = s.GetByID(ctx, 2)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Insert(ctx, movie(1, "Alien again", false, true))
	assert.True(t, errors.Is(err, ErrConflict))

	got, err = s.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alien", got.Title)
}

func testFlags(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, movie(1, "Liked", true, false)))
	require.NoError(t, s.Insert(ctx, movie(2, "Bookmarked", false, true)))

	for _, tc := range []struct {
		id                        int
		exists, liked, bookmarked bool
	}{
		{1, true, true, false},
		{2, true, false, true},
		{3, false, false, false},
	} {
		e, err := s.Exists(ctx, tc.id)
		require.NoError(t, err)
		l, err := s.IsLiked(ctx, tc.id)
		require.NoError(t, err)
		b, err := s.IsBookmarked(ctx, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.exists, e, "exists %v", tc.id)
		assert.Equal(t, tc.liked, l, "liked %v", tc.id)
		assert.Equal(t, tc.bookmarked, b, "bookmarked %v", tc.id)
	}
}

func testUpdateAndDelete(t *testing.T, s Store) {
	ctx := context.Background()
	err := s.Update(ctx, movie(5, "Missing", true, false))
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Insert(ctx, movie(5, "Heat", true, false)))
	m := movie(5, "Heat", true, true)
	m.UserScore = 3
	require.NoError(t, s.Update(ctx, m))

	got, err := s.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.True(t, got.Bookmarked)
	assert.Equal(t, 3, got.UserScore)

	require.NoError(t, s.Delete(ctx, 5))
	require.NoError(t, s.Delete(ctx, 5))
	e, err := s.Exists(ctx, 5)
	require.NoError(t, err)
	assert.False(t, e)
}

func testListsSortedByTitle(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, movie(1, "zodiac", true, false)))
	require.NoError(t, s.Insert(ctx, movie(2, "Amélie", true, true)))
	require.NoError(t, s.Insert(ctx, movie(3, "Brazil", false, true)))
	require.NoError(t, s.Insert(ctx, movie(4, "alien", true, false)))

	titles := func(list []models.StoredMovie) []string {
		res := []string{}
		for _, m := range list {
			res = append(res, m.Title)
		}
		return res
	}

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alien", "Amélie", "Brazil", "zodiac"}, titles(all))

	liked, err := s.GetAllLiked(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alien", "Amélie", "zodiac"}, titles(liked))

	bookmarked, err := s.GetAllBookmarked(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Amélie", "Brazil"}, titles(bookmarked))
}

func testEmptyListIsNotNil(t *testing.T, s Store) {
	list, err := s.GetAllLiked(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func testConcurrentInsertsConflict(t *testing.T, s Store) {
	ctx := context.Background()
	var wg sync.WaitGroup
	var mux sync.Mutex
	var ok, conflicts int
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Insert(ctx, movie(1, "Race", true, false))
			mux.Lock()
			defer mux.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, conflicts)
}
