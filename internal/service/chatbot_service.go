package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bcct-chatbot-be/internal/dto"
	"bcct-chatbot-be/internal/mapper"
	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/pkg/conversation/flow"
	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/conversation/session"
	"bcct-chatbot-be/pkg/store"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const chatTracerName = "bcct.chatbot"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionNotOwned = session.ErrSessionNotOwned
)

var (
	turnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bcct",
		Subsystem: "chat",
		Name:      "turn_duration_seconds",
		Help:      "Time to process one user turn.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"query_type"})

	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bcct",
		Subsystem: "chat",
		Name:      "turns_total",
		Help:      "User turns by outcome.",
	}, []string{"outcome"})
)

// IChatbotService is the conversational entry point used by the HTTP, WebSocket
// and CLI surfaces.
type IChatbotService interface {
	ProcessUserInput(ctx context.Context, userInput, sessionID, userID string) *dto.ChatbotResponse
	SessionState(ctx context.Context, sessionID string) (*dto.SessionStateResponse, error)
	ResetSession(ctx context.Context, sessionID string)
	CheckOwner(ctx context.Context, sessionID, userID string) error
}

type chatbotService struct {
	sessions   *session.Manager
	controller *flow.Controller
	assembler  *response.Assembler
	mapper     *mapper.SessionMapper
	logger     logger.ILogger
	now        func() time.Time
}

func NewChatbotService(
	sessions *session.Manager,
	controller *flow.Controller,
	assembler *response.Assembler,
	logger logger.ILogger,
) IChatbotService {
	return &chatbotService{
		sessions:   sessions,
		controller: controller,
		assembler:  assembler,
		mapper:     mapper.NewSessionMapper(),
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessUserInput runs one turn. It never returns nil: a failure inside the
// pipeline, or a session owned by another user, becomes a PROCESSING_ERROR
// response and leaves the session as it was.
func (s *chatbotService) ProcessUserInput(ctx context.Context, userInput, sessionID, userID string) (resp *dto.ChatbotResponse) {
	started := s.now()
	if strings.TrimSpace(sessionID) == "" {
		sessionID = uuid.NewString()
	}

	ctx, span := otel.Tracer(chatTracerName).Start(ctx, "service.ChatbotService.ProcessUserInput",
		trace.WithAttributes(
			attribute.String("session_id", sessionID),
			attribute.Int("input_length", len(userInput)),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Error("ChatbotService", "Turn failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
			resp = s.assembler.Failure(sessionID, userInput, started)
			s.record(resp, started, "error")
		}
	}()

	var result response.Result
	err := s.sessions.WithSession(sessionID, userID, func(sess *store.ConversationSession) error {
		result = s.controller.Handle(ctx, sess, userInput)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("ChatbotService", "Turn rejected", map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
			"error":      err.Error(),
		})
		resp = s.assembler.Failure(sessionID, userInput, started)
		s.record(resp, started, "rejected")
		return resp
	}

	resp = s.assembler.Build(result, started)
	span.SetAttributes(
		attribute.String("query_type", resp.Metadata.QueryType),
		attribute.String("action_type", resp.Metadata.ActionType),
		attribute.Bool("success", resp.IsSuccess),
	)

	outcome := "success"
	if !resp.IsSuccess {
		outcome = "failure"
	}
	s.record(resp, started, outcome)

	s.logger.Debug("ChatbotService", "Turn processed", map[string]interface{}{
		"session_id":  sessionID,
		"turn":        resp.Metadata.Turn,
		"query_type":  resp.Metadata.QueryType,
		"action_type": resp.Metadata.ActionType,
		"success":     resp.IsSuccess,
	})
	return resp
}

func (s *chatbotService) record(resp *dto.ChatbotResponse, started time.Time, outcome string) {
	turnDuration.WithLabelValues(resp.Metadata.QueryType).Observe(s.now().Sub(started).Seconds())
	turnsTotal.WithLabelValues(outcome).Inc()
}

func (s *chatbotService) SessionState(ctx context.Context, sessionID string) (*dto.SessionStateResponse, error) {
	sess, found := s.sessions.Snapshot(sessionID)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s.mapper.ToStateResponse(sess), nil
}

func (s *chatbotService) ResetSession(ctx context.Context, sessionID string) {
	s.sessions.Reset(sessionID)
}

func (s *chatbotService) CheckOwner(ctx context.Context, sessionID, userID string) error {
	return s.sessions.CheckOwner(sessionID, userID)
}
