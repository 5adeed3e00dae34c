package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver records one served request.
type HTTPObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// Metrics returns middleware that captures request metrics. Requests that
// matched no route are recorded under "unmatched" to bound label cardinality.
// Websocket upgrades are skipped since their duration is the session length.
func Metrics(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if observer == nil || c.IsWebsocket() {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		observer.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
