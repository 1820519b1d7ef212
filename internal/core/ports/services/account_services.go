package services

import (
	"context"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/ChangoHQ/chango_backend/internal/dto"
)

// AccountSvcFacade is the account store service surface.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	GetAccountByReference(ctx context.Context, reference string) (*domain.Account, error)
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, accountID string, actorID string) error
}
