package movies

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtor-io/whattowatch/models"
)

type call struct {
	name  string
	query string
	id    int
	title string
}

type fakeIntents struct {
	mux   sync.Mutex
	calls []call
	known map[int]models.Movie
}

func (s *fakeIntents) record(c call) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.calls = append(s.calls, c)
}

func (s *fakeIntents) RetryPopular() { s.record(call{name: "retry_popular"}) }
func (s *fakeIntents) Search(query string) { s.record(call{name: "search", query: query}) }
func (s *fakeIntents) RetrySearch() { s.record(call{name: "retry_search"}) }
func (s *fakeIntents) RefreshLiked() { s.record(call{name: "refresh_liked"}) }
func (s *fakeIntents) RefreshBookmarked() { s.record(call{name: "refresh_bookmarked"}) }
func (s *fakeIntents) SelectMovie(m models.Movie) { s.movie("select", m) }
func (s *fakeIntents) Like(m models.Movie) { s.movie("like", m) }
func (s *fakeIntents) Unlike(m models.Movie) { s.movie("unlike", m) }
func (s *fakeIntents) Bookmark(m models.Movie) { s.movie("bookmark", m) }
func (s *fakeIntents) Unbookmark(m models.Movie) { s.movie("unbookmark", m) }

func (s *fakeIntents) movie(name string, m models.Movie) {
	s.record(call{name: name, id: m.ID, title: m.Title})
}

func (s *fakeIntents) FindMovie(id int) (models.Movie, bool) {
	m, ok := s.known[id]
	return m, ok
}

func setup() (*gin.Engine, *fakeIntents) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	in := &fakeIntents{
		known: map[int]models.Movie{
			550: {ID: 550, Title: "Fight Club"},
		},
	}
	RegisterHandler(r, in)
	return r, in
}

func do(r *gin.Engine, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearch_RejectsEmptyQuery(t *testing.T) {
	r, in := setup()
	cases := []struct {
		name        string
		contentType string
		body        string
	}{
		{"no body", "", ""},
		{"empty form", "application/x-www-form-urlencoded", "query="},
		{"blank form", "application/x-www-form-urlencoded", "query=" + url.QueryEscape("   ")},
		{"blank json", "application/json", `{"query":" "}`},
		{"broken json", "application/json", `{"query":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/search", tc.contentType, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, in.calls)
}

func TestSearch_TrimsQuery(t *testing.T) {
	r, in := setup()
	w := do(r, http.MethodPost, "/search", "application/x-www-form-urlencoded", "query="+url.QueryEscape("  blade runner "))
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(r, http.MethodPost, "/search", "application/json", `{"query":"alien"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, []call{
		{name: "search", query: "blade runner"},
		{name: "search", query: "alien"},
	}, in.calls)
}

func TestFeedIntents(t *testing.T) {
	r, in := setup()
	for _, p := range []string{"/popular/retry", "/search/retry", "/liked/refresh", "/bookmarked/refresh"} {
		w := do(r, http.MethodPost, p, "", "")
		assert.Equal(t, http.StatusAccepted, w.Code, p)
	}
	var names []string
	for _, c := range in.calls {
		names = append(names, c.name)
	}
	assert.Equal(t, []string{"retry_popular", "retry_search", "refresh_liked", "refresh_bookmarked"}, names)
}

func TestMovieIntents(t *testing.T) {
	r, in := setup()
	for _, a := range []string{"select", "like", "unlike", "bookmark", "unbookmark"} {
		w := do(r, http.MethodPost, "/movies/550/"+a, "", "")
		require.Equal(t, http.StatusAccepted, w.Code, a)
	}
	require.Len(t, in.calls, 5)
	assert.Equal(t, call{name: "bookmark", id: 550, title: "Fight Club"}, in.calls[3])
}

func TestMovieIntents_Errors(t *testing.T) {
	r, in := setup()

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/movies/1/like", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/movies/abc/like", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/movies/550/rate", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/movies/550/like", "application/json", `{"id":1}`).Code)
	assert.Empty(t, in.calls)
}

func TestMovieIntents_BodyMovie(t *testing.T) {
	r, in := setup()
	w := do(r, http.MethodPost, "/movies/603/like", "application/json", `{"id":603,"title":"The Matrix","genre_ids":[28,878]}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []call{{name: "like", id: 603, title: "The Matrix"}}, in.calls)
}

func TestPreflight(t *testing.T) {
	r, in := setup()
	for _, p := range []string{"/search", "/movies/550/like", "/liked/refresh"} {
		req := httptest.NewRequest(http.MethodOptions, p, nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code, p)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), p)
		assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "content-type", p)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost, p)
	}
	assert.Empty(t, in.calls)
}
