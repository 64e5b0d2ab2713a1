package movies

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/webtor-io/whattowatch/models"
)

type Intents interface {
	RetryPopular()
	Search(query string)
	RetrySearch()
	SelectMovie(m models.Movie)
	Like(m models.Movie)
	Unlike(m models.Movie)
	Bookmark(m models.Movie)
	Unbookmark(m models.Movie)
	RefreshLiked()
	RefreshBookmarked()
	FindMovie(id int) (models.Movie, bool)
}

type Handler struct {
	in      Intents
	actions map[string]func(m models.Movie)
}

type SearchRequest struct {
	Query string `form:"query" json:"query"`
}

type accepted struct {
	Status string `json:"status"`
}

func RegisterHandler(r *gin.Engine, in Intents) {
	h := &Handler{
		in: in,
		actions: map[string]func(m models.Movie){
			"select":     in.SelectMovie,
			"like":       in.Like,
			"unlike":     in.Unlike,
			"bookmark":   in.Bookmark,
			"unbookmark": in.Unbookmark,
		},
	}
	gr := r.Group("")
	gr.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost},
		AllowHeaders: []string{"Content-Type"},
	}))
	for _, rt := range []struct {
		path string
		h    gin.HandlerFunc
	}{
		{"/popular/retry", h.retryPopular},
		{"/search", h.search},
		{"/search/retry", h.retrySearch},
		{"/movies/:id/:action", h.movie},
		{"/liked/refresh", h.refreshLiked},
		{"/bookmarked/refresh", h.refreshBookmarked},
	} {
		gr.POST(rt.path, rt.h)
		// preflight is answered by cors, route only has to exist
		gr.OPTIONS(rt.path, preflight)
	}
}

func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (s *Handler) accept(c *gin.Context) {
	c.JSON(http.StatusAccepted, accepted{Status: "accepted"})
}

func (s *Handler) retryPopular(c *gin.Context) {
	s.in.RetryPopular()
	s.accept(c)
}

func (s *Handler) search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, errors.Wrap(err, "failed to parse search request"))
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		_ = c.AbortWithError(http.StatusBadRequest, errors.New("empty search query"))
		return
	}
	s.in.Search(query)
	s.accept(c)
}

func (s *Handler) retrySearch(c *gin.Context) {
	s.in.RetrySearch()
	s.accept(c)
}

func (s *Handler) refreshLiked(c *gin.Context) {
	s.in.RefreshLiked()
	s.accept(c)
}

func (s *Handler) refreshBookmarked(c *gin.Context) {
	s.in.RefreshBookmarked()
	s.accept(c)
}

func (s *Handler) movie(c *gin.Context) {
	action, ok := s.actions[c.Param("action")]
	if !ok {
		_ = c.AbortWithError(http.StatusNotFound, errors.Errorf("unknown action %v", c.Param("action")))
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, errors.Wrap(err, "failed to parse movie id"))
		return
	}
	m, err := s.resolveMovie(c, id)
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	if m == nil {
		_ = c.AbortWithError(http.StatusNotFound, errors.Errorf("movie %v not found", id))
		return
	}
	log.WithField("movie_id", id).Debugf("got %v intent", c.Param("action"))
	action(*m)
	s.accept(c)
}

// resolveMovie takes movie from json body when present, otherwise looks
// it up among known movies.
func (s *Handler) resolveMovie(c *gin.Context, id int) (*models.Movie, error) {
	if c.Request.ContentLength > 0 && c.ContentType() == gin.MIMEJSON {
		var m models.Movie
		if err := c.ShouldBindJSON(&m); err != nil {
			return nil, errors.Wrap(err, "failed to parse movie")
		}
		if m.ID != id {
			return nil, errors.Errorf("movie id mismatch %v != %v", m.ID, id)
		}
		return &m, nil
	}
	m, ok := s.in.FindMovie(id)
	if !ok {
		return nil, nil
	}
	return &m, nil
}
