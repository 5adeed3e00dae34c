package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observedRequest struct {
	method string
	path   string
	status int
}

type recordingObserver struct {
	requests []observedRequest
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.requests = append(o.requests, observedRequest{method: method, path: path, status: status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.POST("/report/pages/:page", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/report/pages/3", "/nope"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, observer.requests, 2)
	assert.Equal(t, observedRequest{http.MethodPost, "/report/pages/:page", http.StatusOK}, observer.requests[0])
	assert.Equal(t, "unmatched", observer.requests[1].path)
	assert.Equal(t, http.StatusNotFound, observer.requests[1].status)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, ExtractMeta(c))
	SetMeta(c, "accepted", true)
	Elapsed(c, time.Now())

	meta := ExtractMeta(c)
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["accepted"])
	assert.Contains(t, meta, "processing_time_ms")
}
