package controller

import (
	"mediagrid-be/internal/dto"
	"mediagrid-be/internal/pkg/serverutils"
	"mediagrid-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	Transcript(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Start)
	h.Post("/:chatId/messages", c.Send)
	h.Get("/:chatId", c.Transcript)
	h.Delete("/:chatId", c.End)
}

func (c *chatController) Start(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)

	res, err := c.service.StartChat(ctx.Context(), uid)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Chat started", res))
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)
	chatID := ctx.Params("chatId")

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.Context(), uid, chatID, req.Content)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Message sent", res))
}

func (c *chatController) Transcript(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)
	chatID := ctx.Params("chatId")

	res, err := c.service.GetTranscript(ctx.Context(), uid, chatID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Chat transcript", res))
}

func (c *chatController) End(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)
	chatID := ctx.Params("chatId")

	c.service.EndChat(uid, chatID)

	return ctx.JSON(serverutils.SuccessResponse[any]("Chat ended", nil))
}
