package server

import (
	"io"
	"net/http/httptest"
	"testing"

	"bcct-chatbot-be/internal/bootstrap"
	"bcct-chatbot-be/internal/config"
	"bcct-chatbot-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		App:       config.AppConfig{Port: "0", Environment: "test", CorsAllowedOrigins: "*"},
		RateLimit: config.RateLimitConfig{RPS: 10, Burst: 10},
		Audit:     config.AuditConfig{Topic: "audit"},
	}
	container := bootstrap.NewContainer(nil, cfg, logger.NewNopLogger())
	t.Cleanup(container.Close)
	return New(cfg, container)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestServer(t).GetApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestChatRoutesRequireAuth(t *testing.T) {
	app := newTestServer(t).GetApp()

	resp, err := app.Test(httptest.NewRequest("POST", "/api/chat/v1/message", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/chat/v1/ws", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}
