package service

import (
	"context"
	"time"

	"mediagrid-be/internal/dto"
	"mediagrid-be/internal/notifier"
	"mediagrid-be/internal/pkg/logger"
	"mediagrid-be/internal/pkg/mailer"
	"mediagrid-be/internal/platform/docstore"
	"mediagrid-be/internal/platform/identity"
	"mediagrid-be/internal/platform/objectstore"
	"mediagrid-be/internal/repository/memory"
	"mediagrid-be/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// awaitUserTimeout bounds the wait for the asynchronous auth-state
// refresh that populates the session after sign-in.
const awaitUserTimeout = 5 * time.Second

type IAuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, sessionID string) error
	State(sessionID string) (*dto.SessionStateResponse, error)
	ManagerFor(sessionID string) (*session.Manager, error)
}

type authService struct {
	managers  *memory.SessionManagerRepository
	provider  identity.Provider
	docs      docstore.Store
	objects   objectstore.Store
	notifier  notifier.Notifier
	events    session.EventPublisher
	mailer    mailer.IEmailService
	jwtSecret string
	logger    logger.ILogger
}

func NewAuthService(
	managers *memory.SessionManagerRepository,
	provider identity.Provider,
	docs docstore.Store,
	objects objectstore.Store,
	notify notifier.Notifier,
	events session.EventPublisher,
	emailService mailer.IEmailService,
	jwtSecret string,
	log logger.ILogger,
) IAuthService {
	return &authService{
		managers:  managers,
		provider:  provider,
		docs:      docs,
		objects:   objects,
		notifier:  notify,
		events:    events,
		mailer:    emailService,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error) {
	sessionID := uuid.New().String()
	mgr, err := s.newManager(sessionID)
	if err != nil {
		return nil, err
	}
	s.managers.Save(sessionID, mgr)

	if err := mgr.Signup(ctx, req.Email, req.Password, req.DisplayName); err != nil {
		s.managers.Delete(sessionID)
		return nil, err
	}

	user, err := s.awaitUser(ctx, mgr)
	if err != nil {
		s.managers.Delete(sessionID)
		return nil, err
	}

	if s.mailer != nil {
		go func(email, name string) {
			if err := s.mailer.SendWelcome(email, name); err != nil {
				s.logger.Warn("AuthService", "Failed to send welcome email", map[string]interface{}{
					"email": email,
					"error": err.Error(),
				})
			}
		}(user.Email, user.DisplayName)
	}

	token, err := s.generateToken(sessionID, user.UID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{Token: token, User: *profileData(user)}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	sessionID := uuid.New().String()
	mgr, err := s.newManager(sessionID)
	if err != nil {
		return nil, err
	}
	s.managers.Save(sessionID, mgr)

	if err := mgr.Login(ctx, req.Email, req.Password); err != nil {
		s.managers.Delete(sessionID)
		return nil, err
	}

	user, err := s.awaitUser(ctx, mgr)
	if err != nil {
		s.managers.Delete(sessionID)
		return nil, err
	}

	token, err := s.generateToken(sessionID, user.UID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{Token: token, User: *profileData(user)}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	mgr, found := s.managers.Get(sessionID)
	if !found {
		return session.ErrNotAuthenticated
	}

	err := mgr.Logout(ctx)
	s.managers.Delete(sessionID)
	return err
}

func (s *authService) State(sessionID string) (*dto.SessionStateResponse, error) {
	mgr, found := s.managers.Get(sessionID)
	if !found {
		return nil, session.ErrNotAuthenticated
	}

	state := mgr.State()
	res := &dto.SessionStateResponse{
		Loading:   state.Loading,
		AuthError: state.AuthError,
	}
	if state.CurrentUser != nil {
		res.CurrentUser = profileData(state.CurrentUser)
	}
	return res, nil
}

func (s *authService) ManagerFor(sessionID string) (*session.Manager, error) {
	mgr, found := s.managers.Get(sessionID)
	if !found {
		return nil, session.ErrNotAuthenticated
	}
	return mgr, nil
}

func (s *authService) newManager(sessionID string) (*session.Manager, error) {
	return session.NewManager(sessionID, s.provider, s.docs, s.objects, s.notifier, s.events, s.logger)
}

func (s *authService) awaitUser(ctx context.Context, mgr *session.Manager) (*session.UserProfile, error) {
	waitCtx, cancel := context.WithTimeout(ctx, awaitUserTimeout)
	defer cancel()
	return mgr.AwaitUser(waitCtx)
}

func (s *authService) generateToken(sessionID, uid string) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"user_id":    uid,
		"exp":        time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func profileData(u *session.UserProfile) *dto.UserProfileData {
	if u == nil {
		return nil
	}
	return &dto.UserProfileData{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Bio:         u.Bio,
		Followers:   u.Followers,
		Following:   u.Following,
		IsPrivate:   u.IsPrivate,
	}
}
