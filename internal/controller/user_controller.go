package controller

import (
	"mediagrid-be/internal/dto"
	"mediagrid-be/internal/pkg/serverutils"
	"mediagrid-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	Me(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	UploadAvatar(ctx *fiber.Ctx) error
	Follow(ctx *fiber.Ctx) error
	Unfollow(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
}

func NewUserController(service service.IUserService) IUserController {
	return &userController{service: service}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/users/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/me", c.Me)
	h.Put("/me", c.Update)
	h.Post("/me/avatar", c.UploadAvatar)
	h.Get("/:uid", c.Show)

	sg := r.Group("/social/v1")
	sg.Use(serverutils.JwtMiddleware)
	sg.Post("/follow", c.Follow)
	sg.Post("/unfollow", c.Unfollow)
}

func (c *userController) Me(ctx *fiber.Ctx) error {
	sessionID := ctx.Locals("session_id").(string)

	res, err := c.service.Me(ctx.Context(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("User profile", res))
}

func (c *userController) Show(ctx *fiber.Ctx) error {
	uid := ctx.Params("uid")

	res, err := c.service.GetProfile(ctx.Context(), uid)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("User profile", res))
}

func (c *userController) Update(ctx *fiber.Ctx) error {
	sessionID := ctx.Locals("session_id").(string)

	var req dto.UpdateProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateProfile(ctx.Context(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Profile updated", res))
}

func (c *userController) UploadAvatar(ctx *fiber.Ctx) error {
	sessionID := ctx.Locals("session_id").(string)

	fileHeader, err := ctx.FormFile("avatar")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing avatar file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	url, err := c.service.UploadAvatar(ctx.Context(), sessionID, fileHeader.Filename, file)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Avatar uploaded successfully", map[string]string{
		"photo_url": url,
	}))
}

func (c *userController) Follow(ctx *fiber.Ctx) error {
	sessionID := ctx.Locals("session_id").(string)

	var req dto.FollowRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Follow(ctx.Context(), sessionID, req.TargetUID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Followed", nil))
}

func (c *userController) Unfollow(ctx *fiber.Ctx) error {
	sessionID := ctx.Locals("session_id").(string)

	var req dto.FollowRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Unfollow(ctx.Context(), sessionID, req.TargetUID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Unfollowed", nil))
}
