package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
	"github.com/ChangoHQ/chango_backend/internal/utils"
)

// AuthService authenticates admin operators and issues bearer tokens.
type AuthService struct {
	userRepo  portsrepo.UserRepositoryFacade
	jwtSecret string
	jwtExpiry time.Duration
	jwtIssuer string
}

func NewAuthService(userRepo portsrepo.UserRepositoryFacade, jwtSecret string, jwtExpiry time.Duration, jwtIssuer string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		jwtIssuer: jwtIssuer,
	}
}

var _ portssvc.AuthSvcFacade = (*AuthService)(nil)

// Login verifies the credentials and issues a signed token. Unknown users
// and wrong passwords come back as the same validation error so the endpoint
// does not leak which usernames exist.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrValidation)
		}
		logger.Error("Failed to look up user for login", slog.String("error", err.Error()))
		return nil, err
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("Rejected login with bad password", slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrValidation)
	}

	token, err := utils.GenerateJWT(user.UserID, s.jwtSecret, s.jwtExpiry, s.jwtIssuer)
	if err != nil {
		logger.Error("Failed to generate token", slog.String("error", err.Error()), slog.String("user_id", user.UserID))
		return nil, apperrors.NewAppError(500, "failed to generate token", err)
	}

	logger.Info("Operator logged in", slog.String("user_id", user.UserID))
	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwtExpiry),
		UserID:    user.UserID,
		Name:      user.Name,
	}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}
