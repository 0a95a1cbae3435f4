package cli

import (
	"context"

	"bcct-chatbot-be/internal/bootstrap"
	"bcct-chatbot-be/internal/config"
	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/service"

	"github.com/google/uuid"
)

// engine is the in-process chatbot: no database, cache or bus.
type engine struct {
	container *bootstrap.Container
	sessionID string
	userID    string
}

func newEngine(ctx context.Context, opts *RootOptions) (*engine, error) {
	log := logger.ILogger(logger.NewNopLogger())
	if opts.Verbose {
		log = logger.NewZapLogger("logs/chatcli.log", false)
	}

	cfg := &config.Config{
		App:       config.AppConfig{Environment: "cli"},
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
		Audit:     config.AuditConfig{Topic: "CONVERSATION_AUDIT"},
	}
	c := bootstrap.NewContainer(nil, cfg, log)
	if err := c.AuditService.Consume(ctx); err != nil {
		c.Close()
		return nil, err
	}

	sessionID := opts.Session
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &engine{container: c, sessionID: sessionID, userID: opts.User}, nil
}

func (e *engine) chat() service.IChatbotService {
	return e.container.ChatbotService
}

func (e *engine) Close() {
	e.container.Close()
}
