package services

import (
	"context"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
)

// StatementSvcFacade provides ledger listings and account statements.
type StatementSvcFacade interface {
	ListTransactions(ctx context.Context, accountID string, limit int, nextToken string) ([]domain.Transaction, string, error)
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Statement(ctx context.Context, accountID string, from, to time.Time) (*domain.AccountStatement, error)
}

// AuditSvcFacade lists entity mutation snapshots for compliance review.
type AuditSvcFacade interface {
	ListByEntity(ctx context.Context, entityType, entityID string, limit int, offset int) ([]domain.AuditLog, error)
}
