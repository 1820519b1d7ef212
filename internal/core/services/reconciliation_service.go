package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
	"github.com/google/uuid"
)

// ReconciliationService posts inbound payment events to the ledger. It is the
// only write path for credits: validation, account resolution and the atomic
// posting all run here, and downstream notification fires only after commit.
type ReconciliationService struct {
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	notification portssvc.NotificationSvcFacade
}

func NewReconciliationService(ledgerRepo portsrepo.LedgerRepositoryFacade, notification portssvc.NotificationSvcFacade) *ReconciliationService {
	return &ReconciliationService{ledgerRepo: ledgerRepo, notification: notification}
}

var _ portssvc.ReconciliationSvcFacade = (*ReconciliationService)(nil)

// Reconcile posts the event exactly once. Replays return the original result
// with Duplicate set and touch nothing.
func (s *ReconciliationService) Reconcile(ctx context.Context, event domain.PaymentEvent) (*domain.PostingResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := event.Validate(); err != nil {
		logger.Warn("Rejected invalid payment event",
			slog.String("provider_ref", event.ProviderRef),
			slog.String("error", err.Error()))
		return nil, err
	}

	reference := event.AccountReference()
	now := time.Now().UTC()
	defaults := domain.Account{
		AccountID:   uuid.NewString(),
		Reference:   reference,
		Name:        reference,
		AccountType: accountTypeForReference(reference),
		Status:      domain.AccountActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     domain.SystemActorID,
			LastUpdatedAt: now,
			LastUpdatedBy: domain.SystemActorID,
		},
	}

	result, account, err := s.ledgerRepo.PostPayment(ctx, event, defaults)
	if err != nil {
		logger.Error("Failed to post payment event",
			slog.String("provider_ref", event.ProviderRef),
			slog.String("reference", reference),
			slog.String("error", err.Error()))
		return nil, err
	}

	if result.Duplicate {
		logger.Info("Replayed payment event, returning original posting",
			slog.String("provider_ref", event.ProviderRef),
			slog.String("transaction_id", result.TransactionID))
		return result, nil
	}

	logger.Info("Payment posted",
		slog.String("provider_ref", event.ProviderRef),
		slog.String("account_id", result.AccountID),
		slog.String("transaction_id", result.TransactionID),
		slog.String("amount", event.Amount.String()))

	// Post-commit, fire and forget. The notification service owns its own
	// timeout and swallows delivery failures.
	notifyCtx := middleware.WithLogger(context.WithoutCancel(ctx), logger)
	go s.notification.Notify(notifyCtx, domain.LedgerEvent{
		Kind:          "payment.received",
		AccountID:     result.AccountID,
		Reference:     account.Reference,
		TransactionID: result.TransactionID,
		ProviderRef:   event.ProviderRef,
		Amount:        event.Amount,
		Balance:       result.NewBalance,
		PayerPhone:    event.PayerPhone,
		PayerName:     event.PayerName,
	})

	return result, nil
}

// accountTypeForReference picks the type for an auto-provisioned account.
func accountTypeForReference(reference string) domain.AccountType {
	if reference == domain.OfflineReference {
		return domain.OfflineAccount
	}
	return domain.ProjectAccount
}
