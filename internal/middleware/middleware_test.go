package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestPrometheusMiddleware_BasicMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	promMw := NewPrometheusMiddleware("test", registry)
	r.Use(promMw.Handler())
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/error", func(c *gin.Context) { c.JSON(500, gin.H{"error": "test error"}) })

	assert.Equal(t, 200, serve(r, "/ok").Code)
	assert.Equal(t, 500, serve(r, "/error").Code)

	families, err := registry.Gather()
	require.NoError(t, err)

	var durationFound, errorsFound bool
	for _, mf := range families {
		switch mf.GetName() {
		case "test_http_request_duration_seconds":
			durationFound = true
			assert.Equal(t, "Длительность HTTP-запросов.", mf.GetHelp())
			assert.Len(t, mf.Metric, 2)
		case "test_http_request_errors_total":
			errorsFound = true
			require.Len(t, mf.Metric, 1)
			assert.Equal(t, 1.0, mf.Metric[0].GetCounter().GetValue())
		}
	}
	assert.True(t, durationFound, "нет метрики длительности")
	assert.True(t, errorsFound, "нет метрики ошибок")
}

func TestPrometheusMiddleware_UnmatchedPathsShareLabel(t *testing.T) {
	registry := prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewPrometheusMiddleware("test", registry).Handler())

	serve(r, "/nope/1")
	serve(r, "/nope/2")

	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "test_http_request_errors_total" {
			continue
		}
		require.Len(t, mf.Metric, 1, "неизвестные пути не плодят метки")
		assert.Equal(t, 2.0, mf.Metric[0].GetCounter().GetValue())
		return
	}
	t.Fatal("нет метрики ошибок")
}

func TestPrometheusMiddleware_Inflight(t *testing.T) {
	registry := prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewPrometheusMiddleware("test", registry).Handler())

	release := make(chan struct{})
	entered := make(chan struct{})
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.JSON(200, gin.H{"ok": true})
	})

	done := make(chan struct{})
	go func() {
		serve(r, "/slow")
		close(done)
	}()
	<-entered

	inflight := func() float64 {
		families, err := registry.Gather()
		require.NoError(t, err)
		for _, mf := range families {
			if mf.GetName() == "test_http_requests_inflight" {
				return mf.Metric[0].GetGauge().GetValue()
			}
		}
		return -1
	}
	assert.Equal(t, 1.0, inflight())

	close(release)
	<-done
	assert.Equal(t, 0.0, inflight())
}

func TestPrometheusMiddleware_MetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	promMw := NewPrometheusMiddleware("test", registry)
	r.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(r)
	r.GET("/api/test", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	assert.Equal(t, 200, serve(r, "/api/test").Code)

	w := serve(r, "/metrics")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "# HELP test_http_request_duration_seconds")
}

func TestRequestLogger_TraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRequestLogger().Handler())

	var captured string
	r.GET("/test", func(c *gin.Context) {
		traceID, exists := c.Get(TraceIDKey)
		require.True(t, exists, "trace_id должен быть в контексте")
		captured = traceID.(string)
		c.JSON(200, gin.H{"trace_id": captured})
	})

	w := serve(r, "/test")
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, captured)
	assert.Equal(t, captured, w.Header().Get("X-Trace-Id"))
	assert.Contains(t, w.Body.String(), captured)
}

func TestRequestLogger_QuietPaths(t *testing.T) {
	rl := NewRequestLogger("/health", "/metrics")
	assert.True(t, rl.isQuiet("/health"))
	assert.True(t, rl.isQuiet("/metrics"))
	assert.False(t, rl.isQuiet("/api/highscores"))
}

func TestRequestLogger_WritesToAPILog(t *testing.T) {
	dir := t.TempDir()
	logging.SetLogDir(dir)
	defer logging.SetLogDir("")
	lm := logging.GetLoggerManager()
	require.NoError(t, lm.CloseAll())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRequestLogger("/health").Handler())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/highscores", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, "/health")
	serve(r, "/api/highscores")
	require.NoError(t, lm.CloseAll())

	files, err := filepath.Glob(filepath.Join(dir, "api_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "[INFO] [api] [HTTP] ◀ GET /api/highscores 200")
	assert.Contains(t, out, "[DEBUG] [api] [HTTP] ◀ GET /health 200", "тихий путь пишется в DEBUG")
}

func TestMiddleware_Integration(t *testing.T) {
	registry := prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRequestLogger().Handler())
	r.Use(NewPrometheusMiddleware("integration_test", registry).Handler())
	r.GET("/api/v1/test", func(c *gin.Context) {
		time.Sleep(time.Millisecond)
		c.JSON(200, gin.H{"status": "ok"})
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, 200, serve(r, "/api/v1/test").Code)
	}

	families, err := registry.Gather()
	require.NoError(t, err)
	var count uint64
	for _, mf := range families {
		if mf.GetName() == "integration_test_http_request_duration_seconds" {
			for _, m := range mf.Metric {
				count += m.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.Equal(t, uint64(5), count)
}

func BenchmarkPrometheusMiddleware(b *testing.B) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(NewPrometheusMiddleware("bench", prometheus.NewRegistry()).Handler())
	r.GET("/bench", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			serve(r, "/bench")
		}
	})
}
