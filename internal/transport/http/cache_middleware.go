package http

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"quiz-progression-service/internal/app"
)

// CacheResponses serves GET responses from the cache when possible and
// stores fresh ones for ttl. Only status-200 JSON bodies are cached;
// errors and other status codes always pass through uncached. Keys are
// derived from path, query and the requesting user so every variant is
// its own entry (and pattern invalidation can drop them all at once).
func CacheResponses(cache app.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || cache == nil {
			c.Next()
			return
		}

		key := cacheKey(c)
		if body, ok := cache.Get(c.Request.Context(), key); ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		if capture.Status() != http.StatusOK {
			return
		}
		if !strings.HasPrefix(capture.Header().Get("Content-Type"), "application/json") {
			return
		}
		cache.Set(c.Request.Context(), key, capture.body.Bytes(), ttl)
	}
}

// cacheKey builds "<path>?<sorted query>|user:<id>". url.Values.Encode
// sorts by key, so equivalent queries share an entry.
func cacheKey(c *gin.Context) string {
	user := c.GetString(userIDKey)
	if user == "" {
		user = "anonymous"
	}
	key := c.Request.URL.Path
	if query := c.Request.URL.Query().Encode(); query != "" {
		key += "?" + query
	}
	return key + "|user:" + user
}

type bodyCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapture) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
