package services

import (
	"context"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/ChangoHQ/chango_backend/internal/dto"
)

// WithdrawalSvcFacade orchestrates outbound payouts.
type WithdrawalSvcFacade interface {
	// Initiate creates the withdrawal and submits it to the provider.
	// Accepted submissions come back PENDING; rejected ones FAILED.
	Initiate(ctx context.Context, req dto.InitiateWithdrawalRequest, actorID string) (*domain.Withdrawal, error)

	// ApplyResult reconciles an asynchronous provider result callback.
	// Idempotent: duplicate or late deliveries against a terminal withdrawal
	// are no-ops.
	ApplyResult(ctx context.Context, conversationID string, resultCode int, resultDesc string, providerRef string) (*domain.Withdrawal, error)

	// ApplyTimeout reconciles a provider queue-timeout callback.
	ApplyTimeout(ctx context.Context, conversationID string) (*domain.Withdrawal, error)

	// Cancel moves an INITIATED withdrawal to CANCELLED.
	Cancel(ctx context.Context, withdrawalID string, actorID string) error

	GetWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)
	ListWithdrawals(ctx context.Context, accountID string, limit int, offset int) ([]domain.Withdrawal, error)
}
