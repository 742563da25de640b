package service

import (
	"context"
	"io"

	"mediagrid-be/internal/dto"
	"mediagrid-be/internal/platform/docstore"
	"mediagrid-be/internal/repository/memory"
	"mediagrid-be/internal/session"

	"github.com/gofiber/fiber/v2"
)

type IUserService interface {
	Me(ctx context.Context, sessionID string) (*dto.UserProfileData, error)
	GetProfile(ctx context.Context, uid string) (*dto.UserProfileData, error)
	UpdateProfile(ctx context.Context, sessionID string, req *dto.UpdateProfileRequest) (*dto.UserProfileData, error)
	UploadAvatar(ctx context.Context, sessionID, filename string, r io.Reader) (string, error)
	Follow(ctx context.Context, sessionID, targetUID string) error
	Unfollow(ctx context.Context, sessionID, targetUID string) error
}

type userService struct {
	managers *memory.SessionManagerRepository
	docs     docstore.Store
}

func NewUserService(managers *memory.SessionManagerRepository, docs docstore.Store) IUserService {
	return &userService{managers: managers, docs: docs}
}

func (s *userService) Me(ctx context.Context, sessionID string) (*dto.UserProfileData, error) {
	mgr, err := s.manager(sessionID)
	if err != nil {
		return nil, err
	}
	state := mgr.State()
	if state.CurrentUser == nil {
		return nil, session.ErrNotAuthenticated
	}
	return profileData(state.CurrentUser), nil
}

// GetProfile reads any user's document directly; email stays private.
func (s *userService) GetProfile(ctx context.Context, uid string) (*dto.UserProfileData, error) {
	data, err := s.docs.Get(ctx, "users", uid)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "User not found")
	}

	res := profileData(session.ProfileFromDoc(data))
	res.Email = ""
	return res, nil
}

func (s *userService) UpdateProfile(ctx context.Context, sessionID string, req *dto.UpdateProfileRequest) (*dto.UserProfileData, error) {
	mgr, err := s.manager(sessionID)
	if err != nil {
		return nil, err
	}

	patch := session.Patch{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		IsPrivate:   req.IsPrivate,
	}
	if err := mgr.UpdateUserProfile(ctx, patch); err != nil {
		return nil, err
	}

	state := mgr.State()
	return profileData(state.CurrentUser), nil
}

func (s *userService) UploadAvatar(ctx context.Context, sessionID, filename string, r io.Reader) (string, error) {
	mgr, err := s.manager(sessionID)
	if err != nil {
		return "", err
	}
	return mgr.UploadProfileImage(ctx, filename, r)
}

func (s *userService) Follow(ctx context.Context, sessionID, targetUID string) error {
	mgr, err := s.manager(sessionID)
	if err != nil {
		return err
	}
	return mgr.FollowUser(ctx, targetUID)
}

func (s *userService) Unfollow(ctx context.Context, sessionID, targetUID string) error {
	mgr, err := s.manager(sessionID)
	if err != nil {
		return err
	}
	return mgr.UnfollowUser(ctx, targetUID)
}

func (s *userService) manager(sessionID string) (*session.Manager, error) {
	mgr, found := s.managers.Get(sessionID)
	if !found {
		return nil, session.ErrNotAuthenticated
	}
	return mgr, nil
}
