package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/platform/logger"
	"github.com/carloseedutra-ti/EPIFlow/internal/service/auth"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// UserService handles the administrative login flow.
type UserService interface {
	// Login authenticates an email/password pair and returns the user and a
	// signed access token. Returns ErrInvalidCredentials for an unknown
	// email or a wrong password.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
}

// userServiceImpl implements the UserService interface.
type userServiceImpl struct {
	userStore        store.UserStore
	passwordVerifier auth.PasswordVerifier
	jwtService       auth.JWTService
	logger           *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userStore store.UserStore,
	passwordVerifier auth.PasswordVerifier,
	jwtService auth.JWTService,
	logger *slog.Logger,
) (UserService, error) {
	if userStore == nil {
		return nil, NewValidationError("userStore", "cannot be nil")
	}
	if passwordVerifier == nil {
		return nil, NewValidationError("passwordVerifier", "cannot be nil")
	}
	if jwtService == nil {
		return nil, NewValidationError("jwtService", "cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		userStore:        userStore,
		passwordVerifier: passwordVerifier,
		jwtService:       jwtService,
		logger:           logger.With(slog.String("component", "user_service")),
	}, nil
}

// Login implements UserService.Login
func (s *userServiceImpl) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login failed: unknown email")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := s.passwordVerifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login failed: password mismatch", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID, user.TenantID)
	if err != nil {
		return nil, "", err
	}

	log.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}
