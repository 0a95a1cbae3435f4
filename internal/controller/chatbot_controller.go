package controller

import (
	"errors"

	"bcct-chatbot-be/internal/dto"
	"bcct-chatbot-be/internal/pkg/serverutils"
	"bcct-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	ResetSession(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
	limiter *serverutils.RateLimiter
}

func NewChatbotController(service service.IChatbotService, limiter *serverutils.RateLimiter) IChatbotController {
	return &chatbotController{
		service: service,
		limiter: limiter,
	}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/message", serverutils.RateLimitMiddleware(c.limiter), c.SendMessage)
	h.Get("/session/:sessionId", c.GetSession)
	h.Post("/session/reset", c.ResetSession)
}

// SendMessage answers with the chat envelope itself. A turn that failed is
// still a 200: isSuccess and errors carry the outcome.
func (c *chatbotController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userID := serverutils.UserID(ctx)
	if err := c.checkOwner(ctx, req.SessionId, userID); err != nil {
		return err
	}

	res := c.service.ProcessUserInput(ctx.UserContext(), req.Message, req.SessionId, userID)
	return ctx.JSON(res)
}

// checkOwner hides sessions of other users behind a 404.
func (c *chatbotController) checkOwner(ctx *fiber.Ctx, sessionID, userID string) error {
	if sessionID == "" {
		return nil
	}
	if errors.Is(c.service.CheckOwner(ctx.UserContext(), sessionID, userID), service.ErrSessionNotOwned) {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	return nil
}

func (c *chatbotController) GetSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")
	if err := c.checkOwner(ctx, sessionID, serverutils.UserID(ctx)); err != nil {
		return err
	}

	res, err := c.service.SessionState(ctx.UserContext(), sessionID)
	if errors.Is(err, service.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *chatbotController) ResetSession(ctx *fiber.Ctx) error {
	var req dto.ResetSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.checkOwner(ctx, req.SessionId, serverutils.UserID(ctx)); err != nil {
		return err
	}
	c.service.ResetSession(ctx.UserContext(), req.SessionId)

	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset session", nil))
}
