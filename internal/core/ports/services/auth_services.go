package services

import (
	"context"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/ChangoHQ/chango_backend/internal/dto"
)

// AuthSvcFacade authenticates admin operators and issues bearer tokens.
type AuthSvcFacade interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}
