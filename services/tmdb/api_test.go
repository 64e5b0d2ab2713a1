package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const popularBody = `{
  "page": 1,
  "results": [
    {
      "id": 284054,
      "title": "Black Panther",
      "overview": "King T'Challa returns home.",
      "backdrop_path": "/b6ZJZHUdMEFECvGiDpJjlfUWela.jpg",
      "poster_path": null,
      "genre_ids": [28, 12, 14, 878],
      "popularity": 435.5,
      "release_date": "2018-02-13",
      "vote_average": 7.4
    }
  ],
  "total_pages": 500
}`

func TestApi_Popular(t *testing.T) {
	var gotPath, gotKey, gotPage string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		gotPage = r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(popularBody))
	}))
	defer ts.Close()

	api := NewApi(ts.URL, "secret", 0, ts.Client())
	p, err := api.Popular(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "/movie/popular", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "1", gotPage)

	require.Len(t, p.Results, 1)
	m := p.Results[0]
	assert.Equal(t, 284054, m.ID)
	assert.Equal(t, "Black Panther", m.Title)
	assert.Equal(t, []int{28, 12, 14, 878}, m.GenreIDs)
	assert.Nil(t, m.PosterPath)
	require.NotNil(t, m.BackdropPath)
	assert.Equal(t, "/b6ZJZHUdMEFECvGiDpJjlfUWela.jpg", *m.BackdropPath)
	assert.Equal(t, 7.4, m.VoteAverage)
}

func TestApi_Search(t *testing.T) {
	var gotPath, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	}))
	defer ts.Close()

	api := NewApi(ts.URL, "secret", 10, ts.Client())
	p, err := api.Search(context.Background(), "star wars & co", 1)
	require.NoError(t, err)
	assert.Equal(t, "/search/movie", gotPath)
	assert.Equal(t, "star wars & co", gotQuery)
	assert.NotNil(t, p.Results)
	assert.Empty(t, p.Results)
}

func TestApi_Errors(t *testing.T) {
	t.Run("non 2xx status is a server error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer ts.Close()
		_, err := NewApi(ts.URL, "bad", 0, ts.Client()).Popular(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrServer))
		assert.False(t, errors.Is(err, ErrNetwork))
		var se *ServerError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	})

	t.Run("undecodable body is a server error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer ts.Close()
		_, err := NewApi(ts.URL, "k", 0, ts.Client()).Popular(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrServer))
	})

	t.Run("unreachable host is a network error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		u := ts.URL
		ts.Close()
		_, err := NewApi(u, "k", 0, http.DefaultClient).Search(context.Background(), "x", 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNetwork))
		assert.False(t, errors.Is(err, ErrServer))
	})
}
