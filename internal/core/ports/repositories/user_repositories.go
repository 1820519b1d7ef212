package repositories

import (
	"context"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
)

// UserRepositoryFacade provides access to admin operator accounts.
type UserRepositoryFacade interface {
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	SaveUser(ctx context.Context, user domain.User) error
}
