package repositories

import (
	"context"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
)

// WithdrawalReader provides read access to withdrawals.
type WithdrawalReader interface {
	FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)
	FindWithdrawalByConversationID(ctx context.Context, conversationID string) (*domain.Withdrawal, error)
	ListWithdrawals(ctx context.Context, accountID string, limit int, offset int) ([]domain.Withdrawal, error)
}

// WithdrawalWriter mutates withdrawal state.
type WithdrawalWriter interface {
	// CreateWithdrawal inserts a new INITIATED withdrawal. When reserve is
	// true the source account row is locked and the insert fails with
	// ErrValidation if amount exceeds balance minus the sum of non-terminal
	// withdrawals against the same account.
	CreateWithdrawal(ctx context.Context, withdrawal domain.Withdrawal, reserve bool) error

	// MarkSubmitted transitions INITIATED -> PENDING, storing provider
	// conversation ids.
	MarkSubmitted(ctx context.Context, withdrawalID, conversationID, originatorConversationID string, actorID string) error

	// MarkFailed transitions a non-terminal withdrawal to FAILED.
	MarkFailed(ctx context.Context, withdrawalID string, resultCode *int, resultDesc string, actorID string) error

	// MarkCancelled transitions INITIATED -> CANCELLED.
	MarkCancelled(ctx context.Context, withdrawalID string, actorID string) error

	// ApplyResult applies a provider result callback atomically: on the
	// success code the withdrawal moves PENDING -> COMPLETED, the source
	// account balance is decremented and a linked debit transaction inserted
	// in the same database transaction; on any other code it moves to FAILED.
	// A withdrawal already in a terminal state is returned unchanged with
	// applied=false, making duplicate and late callbacks no-ops.
	ApplyResult(ctx context.Context, conversationID string, resultCode int, resultDesc string, providerRef string) (w *domain.Withdrawal, posting *domain.PostingResult, applied bool, err error)

	// ApplyTimeout transitions PENDING -> FAILED with the timeout result.
	// Terminal withdrawals are returned unchanged with applied=false.
	ApplyTimeout(ctx context.Context, conversationID string) (w *domain.Withdrawal, applied bool, err error)
}

// WithdrawalRepositoryFacade is the full withdrawal persistence surface.
type WithdrawalRepositoryFacade interface {
	WithdrawalReader
	WithdrawalWriter
}
