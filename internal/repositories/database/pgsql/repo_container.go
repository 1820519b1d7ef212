package pgsql

import (
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	auditRepo := newPgxAuditLogRepository(dbPool)
	accountRepo := newPgxAccountRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool, accountRepo, auditRepo)
	withdrawalRepo := newPgxWithdrawalRepository(dbPool, accountRepo, ledgerRepo, auditRepo)
	userRepo := newPgxUserRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:    accountRepo,
		LedgerRepo:     ledgerRepo,
		WithdrawalRepo: withdrawalRepo,
		AuditRepo:      auditRepo,
		UserRepo:       userRepo,
	}
}
