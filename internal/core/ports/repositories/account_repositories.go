package repositories

import (
	"context"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountReader provides read access to accounts.
type AccountReader interface {
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	FindAccountByReference(ctx context.Context, reference string) (*domain.Account, error)
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter provides write access to accounts outside a posting transaction.
type AccountWriter interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	UpdateAccount(ctx context.Context, account domain.Account) error
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error
}

// AccountTxOps are account operations that run inside a caller-owned database
// transaction. They exist so the ledger and withdrawal repositories can
// compose account mutations into their atomic units.
type AccountTxOps interface {
	// CreateIfAbsentInTx inserts the account unless its reference already
	// exists, then returns the (possibly pre-existing) row locked FOR UPDATE
	// and whether this call created it. Safe under concurrent first-touch:
	// the unique constraint on reference guarantees at most one row per
	// reference.
	CreateIfAbsentInTx(ctx context.Context, tx pgx.Tx, account domain.Account) (*domain.Account, bool, error)

	// FindAccountByIDForUpdate loads the account row locked FOR UPDATE.
	FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error)

	// ApplyBalanceDeltaInTx atomically applies balance += delta and returns
	// the resulting balance.
	ApplyBalanceDeltaInTx(ctx context.Context, tx pgx.Tx, accountID string, delta decimal.Decimal, userID string, now time.Time) (decimal.Decimal, error)
}

// AccountRepositoryFacade is the full account persistence surface.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTxOps
}
