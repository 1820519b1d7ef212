package services

import (
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, payoutClient portssvc.PayoutClient, webhook portssvc.WebhookPoster, publisher portssvc.EventPublisher) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Notification first; the posting paths depend on it.
	container.Notification = NewNotificationService(webhook, publisher)

	container.Account = NewAccountService(repos.AccountRepo, repos.AuditRepo)
	container.Reconciliation = NewReconciliationService(repos.LedgerRepo, container.Notification)
	container.Withdrawal = NewWithdrawalService(
		repos.WithdrawalRepo,
		repos.AccountRepo,
		payoutClient,
		container.Notification,
		cfg.WithdrawalReserveBalance,
	)
	container.Statement = NewStatementService(repos.LedgerRepo, repos.AccountRepo)
	container.Audit = NewAuditService(repos.AuditRepo)
	container.Auth = NewAuthService(repos.UserRepo, cfg.JWTSecret, cfg.JWTExpiryDuration, cfg.JWTIssuer)

	return container
}
