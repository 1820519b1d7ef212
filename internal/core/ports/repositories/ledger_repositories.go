package repositories

import (
	"context"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// LedgerReader provides read access to the transaction ledger.
type LedgerReader interface {
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	FindTransactionByProviderRef(ctx context.Context, providerRef string) (*domain.Transaction, error)

	// ListTransactionsByAccount pages newest-first using an opaque cursor
	// token; an empty token starts from the top. Returns the next token, or
	// empty when the page was not full.
	ListTransactionsByAccount(ctx context.Context, accountID string, limit int, nextToken string) ([]domain.Transaction, string, error)

	// ListTransactionsBetween returns completed transactions for an account
	// within [from, to] ordered oldest-first, for statement rendering.
	ListTransactionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]domain.Transaction, error)
}

// LedgerWriter performs atomic postings.
type LedgerWriter interface {
	// PostPayment turns one payment event into exactly one credit posting:
	// resolve or auto-create the account by reference (row-locked), increment
	// the balance, and insert the transaction with the post-increment balance
	// snapshot, all inside one database transaction. A replayed provider
	// transaction id returns the original result with Duplicate set and
	// mutates nothing.
	PostPayment(ctx context.Context, event domain.PaymentEvent, defaults domain.Account) (*domain.PostingResult, *domain.Account, error)

	// InsertTransactionInTx appends a ledger entry inside a caller-owned
	// transaction. Used by the withdrawal repository for completion debits.
	InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error
}

// LedgerRepositoryFacade is the full ledger persistence surface.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
