package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/metrics", m.Handler())
	router.GET("/api/v1/audits/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/audits/abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	m.AuditsTotal.WithLabelValues("completed").Inc()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	// Route template, not the raw path, keeps cardinality bounded.
	assert.Contains(t, body, `path="/api/v1/audits/:id"`)
	assert.Contains(t, body, "audit_engine_http_requests_total")
	assert.Contains(t, body, `audit_engine_audits_total{outcome="completed"} 1`)
}
