package controller

import (
	"mediagrid-be/internal/dto"
	"mediagrid-be/internal/pkg/serverutils"
	"mediagrid-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPostController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Feed(ctx *fiber.Ctx) error
	Explore(ctx *fiber.Ctx) error
	Like(ctx *fiber.Ctx) error
	Unlike(ctx *fiber.Ctx) error
}

type postController struct {
	service service.IPostService
}

func NewPostController(service service.IPostService) IPostController {
	return &postController{service: service}
}

func (c *postController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/posts/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("/feed", c.Feed)
	h.Get("/explore", c.Explore)
	h.Post("/:postId/like", c.Like)
	h.Delete("/:postId/like", c.Unlike)
}

func (c *postController) Create(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)

	var req dto.CreatePostRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), uid, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Post created", res))
}

func (c *postController) Feed(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)

	res, err := c.service.Feed(ctx.Context(), uid)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Feed", res))
}

func (c *postController) Explore(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)

	res, err := c.service.Explore(ctx.Context(), uid)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Explore", res))
}

func (c *postController) Like(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)
	postID := ctx.Params("postId")

	if err := c.service.Like(ctx.Context(), uid, postID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Post liked", nil))
}

func (c *postController) Unlike(ctx *fiber.Ctx) error {
	uid := ctx.Locals("user_id").(string)
	postID := ctx.Params("postId")

	if err := c.service.Unlike(ctx.Context(), uid, postID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Post unliked", nil))
}
