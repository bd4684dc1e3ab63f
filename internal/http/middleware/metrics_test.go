package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndFallsBackToRawPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/welders/:id", func(c *gin.Context) { c.String(http.StatusOK, "w") })
	r.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseRoute := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/welders/:id", "200"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nowhere", "404"))

	for _, p := range []string{"/welders/1", "/welders/2", "/nowhere", "/empty"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/welders/:id", "200")); got != baseRoute+2 {
		t.Fatalf("route counter = %v; want %v", got, baseRoute+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nowhere", "404")); got != baseMiss+1 {
		t.Fatalf("fallback counter = %v; want %v", got, baseMiss+1)
	}
	if inflight := testutil.ToFloat64(httpInflight); inflight != 0 {
		t.Fatalf("inflight = %v; want 0", inflight)
	}
}
