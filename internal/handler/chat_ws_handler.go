package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"bcct-chatbot-be/internal/dto"
	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/pkg/serverutils"
	"bcct-chatbot-be/internal/service"
	internalWS "bcct-chatbot-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// OutboundFrame wraps every message pushed to a chat socket.
type OutboundFrame struct {
	Type string               `json:"type"`
	Data *dto.ChatbotResponse `json:"data"`
}

// ChatWsHandler serves the live chat socket. Every turn is fanned out to all
// connections following the same session.
type ChatWsHandler struct {
	service service.IChatbotService
	hub     *internalWS.Hub
	limiter *serverutils.RateLimiter
	logger  logger.ILogger
}

func NewChatWsHandler(service service.IChatbotService, hub *internalWS.Hub, limiter *serverutils.RateLimiter, log logger.ILogger) *ChatWsHandler {
	return &ChatWsHandler{
		service: service,
		hub:     hub,
		limiter: limiter,
		logger:  log,
	}
}

func (h *ChatWsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/chat/v1/ws", h.authenticate, websocket.New(h.serve))
}

// authenticate runs before the upgrade. Browsers cannot set headers on a
// socket, so the token may come as ?token=.
func (h *ChatWsHandler) authenticate(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	}
	userID, err := serverutils.ParseUserToken(tokenStr)
	if err != nil {
		h.logger.Warn("ChatWsHandler", "Rejected socket handshake", map[string]interface{}{"ip": c.IP()})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if errors.Is(h.service.CheckOwner(c.UserContext(), sessionID, userID), service.ErrSessionNotOwned) {
		h.logger.Warn("ChatWsHandler", "Rejected socket for another user's session", map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
		})
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	c.Locals(serverutils.UserIDKey, userID)
	c.Locals("session_id", sessionID)
	return c.Next()
}

func (h *ChatWsHandler) serve(conn *websocket.Conn) {
	userID, _ := conn.Locals(serverutils.UserIDKey).(string)
	sessionID, _ := conn.Locals("session_id").(string)

	h.logger.Info("ChatWsHandler", "Chat socket opened", map[string]interface{}{
		"user_id":    userID,
		"session_id": sessionID,
	})
	internalWS.ServeWs(h.hub, conn, userID, sessionID, h.onMessage)
	h.logger.Info("ChatWsHandler", "Chat socket closed", map[string]interface{}{"session_id": sessionID})
}

func (h *ChatWsHandler) onMessage(c *internalWS.Client, text string) {
	if !h.limiter.Allow(c.UserID) {
		h.logger.Warn("ChatWsHandler", "Rate limited", map[string]interface{}{"user_id": c.UserID})
		return
	}

	resp := h.service.ProcessUserInput(context.Background(), text, c.SessionID, c.UserID)
	frame, err := json.Marshal(OutboundFrame{Type: "chat_response", Data: resp})
	if err != nil {
		h.logger.Error("ChatWsHandler", "Failed to encode response", map[string]interface{}{"error": err.Error()})
		return
	}
	h.hub.Deliver(c.SessionID, c.UserID, frame)
}
