package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bcct-chatbot-be/internal/dto"
	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/pkg/serverutils"
	"bcct-chatbot-be/internal/repository/memory"
	"bcct-chatbot-be/internal/service"
	"bcct-chatbot-be/pkg/conversation/flow"
	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/conversation/session"
	"bcct-chatbot-be/pkg/lexicon"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret"

func newTestApp(t *testing.T, limiter *serverutils.RateLimiter) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	lex := lexicon.MustDefault()
	now := func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	log := logger.NewNopLogger()
	svc := service.NewChatbotService(
		session.NewManager(memory.NewSessionRepository(0, 0), log),
		flow.NewController(lex, memory.NewSeededContractDataProvider(lex, now), log, flow.WithClock(now)),
		response.NewAssembler(nil),
		log,
	)
	if limiter == nil {
		limiter = serverutils.NewRateLimiter(100, 100)
	}

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewChatbotController(svc, limiter).RegisterRoutes(app.Group("/api"))
	return app
}

func token(t *testing.T, userID string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(t *testing.T, app *fiber.App, method, path, auth string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSendMessage(t *testing.T) {
	app := newTestApp(t, nil)
	auth := token(t, "alice")

	resp := do(t, app, "POST", "/api/chat/v1/message", auth, dto.ChatRequest{Message: "create contract", SessionId: "s1"})
	require.Equal(t, 200, resp.StatusCode)

	var body dto.ChatbotResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.UserActionRequired)
	assert.Equal(t, "s1", body.Metadata.SessionId)
	assert.Equal(t, 1, body.Metadata.Turn)

	resp = do(t, app, "GET", "/api/chat/v1/session/s1", auth, nil)
	require.Equal(t, 200, resp.StatusCode)
	var state serverutils.BaseResponse[dto.SessionStateResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, "COLLECTING_CONTRACT_FIELDS", state.Data.Step)
}

func TestSendMessageRejectsBadRequests(t *testing.T) {
	app := newTestApp(t, nil)

	resp := do(t, app, "POST", "/api/chat/v1/message", "", dto.ChatRequest{Message: "hi"})
	assert.Equal(t, 401, resp.StatusCode)

	resp = do(t, app, "POST", "/api/chat/v1/message", token(t, "alice"), dto.ChatRequest{})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestSessionsAreScopedToTheirUser(t *testing.T) {
	app := newTestApp(t, nil)
	do(t, app, "POST", "/api/chat/v1/message", token(t, "alice"), dto.ChatRequest{Message: "help", SessionId: "s1"})

	resp := do(t, app, "GET", "/api/chat/v1/session/s1", token(t, "mallory"), nil)
	assert.Equal(t, 404, resp.StatusCode)

	resp = do(t, app, "POST", "/api/chat/v1/message", token(t, "mallory"), dto.ChatRequest{Message: "create contract", SessionId: "s1"})
	assert.Equal(t, 404, resp.StatusCode)

	resp = do(t, app, "GET", "/api/chat/v1/session/s1", token(t, "alice"), nil)
	require.Equal(t, 200, resp.StatusCode)
	var state serverutils.BaseResponse[dto.SessionStateResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, "IDLE", state.Data.Step)
	assert.Equal(t, 1, state.Data.TurnCount)

	resp = do(t, app, "POST", "/api/chat/v1/session/reset", token(t, "mallory"), dto.ResetSessionRequest{SessionId: "s1"})
	assert.Equal(t, 404, resp.StatusCode)

	resp = do(t, app, "POST", "/api/chat/v1/session/reset", token(t, "alice"), dto.ResetSessionRequest{SessionId: "s1"})
	assert.Equal(t, 200, resp.StatusCode)

	resp = do(t, app, "GET", "/api/chat/v1/session/s1", token(t, "alice"), nil)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestSendMessageIsRateLimited(t *testing.T) {
	app := newTestApp(t, serverutils.NewRateLimiter(0.001, 1))
	auth := token(t, "alice")

	resp := do(t, app, "POST", "/api/chat/v1/message", auth, dto.ChatRequest{Message: "help"})
	assert.Equal(t, 200, resp.StatusCode)
	resp = do(t, app, "POST", "/api/chat/v1/message", auth, dto.ChatRequest{Message: "help"})
	assert.Equal(t, 429, resp.StatusCode)
}
