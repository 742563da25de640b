package controller

import (
	"mediagrid-be/internal/pkg/serverutils"
	"mediagrid-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type INotificationController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	UnreadCount(ctx *fiber.Ctx) error
	MarkRead(ctx *fiber.Ctx) error
	MarkAllRead(ctx *fiber.Ctx) error
}

type notificationController struct {
	service *service.NotificationService
}

func NewNotificationController(service *service.NotificationService) INotificationController {
	return &notificationController{service: service}
}

func (c *notificationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notifications/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get("/unread-count", c.UnreadCount)
	h.Put("/:id/read", c.MarkRead)
	h.Put("/read-all", c.MarkAllRead)
}

func (c *notificationController) List(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)
	limit := ctx.QueryInt("limit", 50)

	res, err := c.service.List(ctx.Context(), uid, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Notifications", res))
}

func (c *notificationController) UnreadCount(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)

	count, err := c.service.UnreadCount(ctx.Context(), uid)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Unread count", map[string]int64{
		"count": count,
	}))
}

func (c *notificationController) MarkRead(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid notification id")
	}

	if err := c.service.MarkRead(ctx.Context(), uid, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Notification marked as read", nil))
}

func (c *notificationController) MarkAllRead(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)

	if err := c.service.MarkAllRead(ctx.Context(), uid); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("All notifications marked as read", nil))
}
