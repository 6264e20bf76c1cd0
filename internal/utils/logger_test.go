package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	assert.True(t, NewLogger("development", "").Enabled(t.Context(), slog.LevelDebug))
	assert.False(t, NewLogger("production", "").Enabled(t.Context(), slog.LevelDebug))
	assert.False(t, NewLogger("development", "warn").Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, NewLogger("production", "bogus").Enabled(t.Context(), slog.LevelInfo))
}

func TestSlogLogger_LogRequestLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	logger.With("request_id", "r1").LogRequest("GET", "/x", 503, "1ms")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "r1", entry["request_id"])
	assert.Equal(t, float64(503), entry["status_code"])
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	router := gin.New()
	router.Use(LoggerMiddleware(logger), RecoveryMiddleware(logger))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "Handler panic recovered")
	assert.Contains(t, buf.String(), "HTTP Request")
}
