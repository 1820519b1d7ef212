package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// StatementService serves ledger listings and period statements.
type StatementService struct {
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
}

func NewStatementService(ledgerRepo portsrepo.LedgerRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade) *StatementService {
	return &StatementService{ledgerRepo: ledgerRepo, accountRepo: accountRepo}
}

var _ portssvc.StatementSvcFacade = (*StatementService)(nil)

func (s *StatementService) ListTransactions(ctx context.Context, accountID string, limit int, nextToken string) ([]domain.Transaction, string, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, "", err
	}
	return s.ledgerRepo.ListTransactionsByAccount(ctx, accountID, limit, nextToken)
}

func (s *StatementService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.ledgerRepo.FindTransactionByID(ctx, transactionID)
}

// Statement builds the account statement for [from, to]. Opening and closing
// balances come from the org_balance snapshots on the bounding transactions,
// so no full-ledger aggregation is needed.
func (s *StatementService) Statement(ctx context.Context, accountID string, from, to time.Time) (*domain.AccountStatement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if to.Before(from) {
		return nil, fmt.Errorf("%w: statement period end precedes start", apperrors.ErrValidation)
	}

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	txns, err := s.ledgerRepo.ListTransactionsBetween(ctx, accountID, from, to)
	if err != nil {
		logger.Error("Failed to load statement transactions",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()))
		return nil, err
	}

	statement := &domain.AccountStatement{
		Account:      *account,
		From:         from,
		To:           to,
		Transactions: txns,
	}

	totalCredits := decimal.Zero
	totalDebits := decimal.Zero
	for _, txn := range txns {
		if txn.Direction == domain.Credit {
			totalCredits = totalCredits.Add(txn.Amount)
		} else {
			totalDebits = totalDebits.Add(txn.Amount)
		}
	}
	statement.TotalCredits = totalCredits
	statement.TotalDebits = totalDebits

	if len(txns) > 0 {
		first := txns[0]
		// org_balance is post-posting; reverse the first movement to get the
		// balance the period opened with.
		if first.Direction == domain.Credit {
			statement.OpeningBalance = first.OrgBalance.Sub(first.Amount)
		} else {
			statement.OpeningBalance = first.OrgBalance.Add(first.Amount)
		}
		statement.ClosingBalance = txns[len(txns)-1].OrgBalance
	} else {
		// No movement in the period; the current balance stands for both.
		statement.OpeningBalance = account.Balance
		statement.ClosingBalance = account.Balance
	}

	return statement, nil
}

// AuditService lists entity mutation snapshots for compliance review.
type AuditService struct {
	auditRepo portsrepo.AuditLogRepositoryFacade
}

func NewAuditService(auditRepo portsrepo.AuditLogRepositoryFacade) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

var _ portssvc.AuditSvcFacade = (*AuditService)(nil)

func (s *AuditService) ListByEntity(ctx context.Context, entityType, entityID string, limit int, offset int) ([]domain.AuditLog, error) {
	return s.auditRepo.ListByEntity(ctx, entityType, entityID, limit, offset)
}
