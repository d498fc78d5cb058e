package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/bluesky/api/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// logLines decodes every JSON log line written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &line), raw)
		lines = append(lines, line)
	}
	return lines
}

func findLine(lines []map[string]interface{}, msg string) map[string]interface{} {
	for _, l := range lines {
		if l["message"] == msg {
			return l
		}
	}
	return nil
}

func TestRequestID(t *testing.T) {
	newRouter := func() *gin.Engine {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/id", func(c *gin.Context) {
			c.String(http.StatusOK, GetRequestID(c))
		})
		return router
	}

	t.Run("mints a uuid when none is sent", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps a well formed upstream id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set(RequestIDHeader, "lb-7f3a.91_x")
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, req)

		assert.Equal(t, "lb-7f3a.91_x", w.Body.String())
		assert.Equal(t, "lb-7f3a.91_x", w.Header().Get(RequestIDHeader))
	})

	for name, upstream := range map[string]string{
		"replaces an id with spaces": "abc def",
		"replaces markup":            "<script>alert(1)</script>",
		"replaces an oversized id":   strings.Repeat("a", 65),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/id", nil)
			req.Header.Set(RequestIDHeader, upstream)
			w := httptest.NewRecorder()
			newRouter().ServeHTTP(w, req)

			assert.NotEqual(t, upstream, w.Body.String())
			_, err := uuid.Parse(w.Body.String())
			assert.NoError(t, err)
		})
	}

	t.Run("empty outside the middleware", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, GetRequestID(c))
	})
}

func TestCORS(t *testing.T) {
	newRouter := func(origins []string) *gin.Engine {
		router := gin.New()
		router.Use(CORS(origins))
		router.GET("/api/v2/properties", func(c *gin.Context) {
			c.Header(RateLimitRemainingHeader, "41")
			c.Status(http.StatusOK)
		})
		return router
	}
	origins := []string{"https://app.example.com"}

	t.Run("preflight allows bearer auth from a configured origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v2/properties", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		w := httptest.NewRecorder()
		newRouter(origins).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "authorization")
	})

	t.Run("exposes request id and rate limit headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v2/properties", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		newRouter(origins).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
		for _, h := range []string{RequestIDHeader, RateLimitLimitHeader, RateLimitRemainingHeader, RateLimitResetHeader} {
			assert.Contains(t, exposed, strings.ToLower(h))
		}
		assert.Equal(t, "41", w.Header().Get(RateLimitRemainingHeader))
	})

	t.Run("rejects an unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v2/properties", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		newRouter(origins).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin without credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v2/properties", nil)
		req.Header.Set("Origin", "https://anywhere.example.org")
		w := httptest.NewRecorder()
		newRouter([]string{"*"}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestLogger_ClientErrorLine(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(logger.NewWithWriter(&buf, zerolog.DebugLevel)))
	router.GET("/api/v2/properties/:id", func(c *gin.Context) {
		GetLogger(c).Debug("inside handler", nil)
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v2/properties/9?organization_id=1", nil)
	req.Header.Set(RequestIDHeader, "req-404")
	router.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, &buf)
	inner := findLine(lines, "inside handler")
	require.NotNil(t, inner)
	assert.Equal(t, "req-404", inner["request_id"])

	done := findLine(lines, "Request completed with client error")
	require.NotNil(t, done)
	assert.Equal(t, "warn", done["level"])
	assert.Equal(t, "req-404", done["request_id"])
	assert.Equal(t, "/api/v2/properties/:id", done["route"])
	assert.Equal(t, "/api/v2/properties/9", done["path"])
	assert.Equal(t, "organization_id=1", done["query"])
	assert.Equal(t, float64(http.StatusNotFound), done["status"])
	assert.Nil(t, done["trace_id"])
}

func TestRecovery_EnvelopeAndLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, zerolog.DebugLevel)

	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(log))
	router.Use(Recovery(log))
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(RequestIDHeader, "req-500")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{
		"status": "error",
		"message": "An unexpected error occurred",
		"error": {
			"code": "INTERNAL_SERVER_ERROR",
			"message": "An unexpected error occurred",
			"request_id": "req-500"
		}
	}`, w.Body.String())

	lines := logLines(t, &buf)

	recovered := findLine(lines, "Panic recovered")
	require.NotNil(t, recovered)
	assert.Equal(t, "req-500", recovered["request_id"])
	assert.Equal(t, "/boom", recovered["route"])
	assert.Equal(t, "panic: boom", recovered["error"])
	assert.NotEmpty(t, recovered["stack"])

	completed := findLine(lines, "Request completed with server error")
	require.NotNil(t, completed)
	assert.Equal(t, "req-500", completed["request_id"])
	assert.Equal(t, float64(http.StatusInternalServerError), completed["status"])
	assert.Contains(t, completed["errors"], "panic: boom")
}

func TestRecovery_WithoutRequestLogger(t *testing.T) {
	var buf bytes.Buffer

	router := gin.New()
	router.Use(RequestID())
	router.Use(Recovery(logger.NewWithWriter(&buf, zerolog.DebugLevel)))
	router.GET("/boom", func(c *gin.Context) {
		panic("no logger middleware")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(RequestIDHeader, "req-bare")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	recovered := findLine(logLines(t, &buf), "Panic recovered")
	require.NotNil(t, recovered)
	assert.Equal(t, "req-bare", recovered["request_id"])
}

func TestRecovery_AfterPartialWrite(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(logger.NewWithWriter(&bytes.Buffer{}, zerolog.Disabled)))
	router.GET("/partial", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partial", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", w.Body.String())
}
