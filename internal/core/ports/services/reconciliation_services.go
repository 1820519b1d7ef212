package services

import (
	"context"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
)

// ReconciliationSvcFacade turns inbound payment notifications into ledger postings.
type ReconciliationSvcFacade interface {
	// Reconcile posts the event exactly once. Replays of an already-posted
	// provider transaction id return the original result with Duplicate set.
	Reconcile(ctx context.Context, event domain.PaymentEvent) (*domain.PostingResult, error)
}
