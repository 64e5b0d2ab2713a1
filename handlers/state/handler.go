package state

import (
	"io"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/webtor-io/whattowatch/models"
)

type Source interface {
	State() models.AppState
	Subscribe() (<-chan models.AppState, func())
}

type Handler struct {
	src Source
}

func RegisterHandler(r *gin.Engine, src Source) {
	h := &Handler{
		src: src,
	}
	gr := r.Group("/state")
	gr.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet},
	}))
	gr.GET("", h.get)
	gr.GET("/stream", h.stream)
	gr.OPTIONS("", preflight)
	gr.OPTIONS("/stream", preflight)
}

func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (s *Handler) get(c *gin.Context) {
	c.JSON(http.StatusOK, s.src.State())
}

// stream sends every observed snapshot as "state" event until client
// goes away.
func (s *Handler) stream(c *gin.Context) {
	ch, cancel := s.src.Subscribe()
	defer cancel()
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case st, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("state", st)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
