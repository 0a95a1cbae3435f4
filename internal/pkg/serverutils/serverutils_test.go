package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Message string `validate:"required,max=5"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sample{Message: "hi"}))

	err := ValidateRequest(sample{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{"Message": "required"}, verr.Fields)

	err = ValidateRequest(sample{Message: "too long"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "max", verr.Fields["Message"])
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/validation", func(ctx *fiber.Ctx) error { return ValidateRequest(sample{}) })
	app.Get("/missing", func(ctx *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "Session not found") })
	app.Get("/boom", func(ctx *fiber.Ctx) error { return errors.New("pq: secret detail") })

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/validation", 400, "Invalid request"},
		{"/missing", 404, "Session not found"},
		{"/boom", 500, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body BaseResponse[any]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	app := fiber.New()
	app.Get("/me", JwtMiddleware, func(ctx *fiber.Ctx) error { return ctx.SendString(UserID(ctx)) })

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", 401},
		{"wrong secret", "Bearer " + signed(t, "other", jwt.MapClaims{"user_id": "u1"}), 401},
		{"no user id", "Bearer " + signed(t, "test-secret", jwt.MapClaims{"sub": "u1"}), 401},
		{"valid", "Bearer " + signed(t, "test-secret", jwt.MapClaims{"user_id": "u1"}), 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("u1"))
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
	assert.True(t, l.Allow("u2"), "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("u1"))

	now = now.Add(time.Hour)
	l.Sweep(time.Minute)
	assert.Empty(t, l.visitors)
}
