package services

import (
	"context"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
)

// PayoutClient submits outbound payout requests to the payment provider.
type PayoutClient interface {
	SubmitPayout(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutSubmission, error)
}

// WebhookPoster delivers a ledger event to a downstream webhook.
type WebhookPoster interface {
	Post(ctx context.Context, event domain.LedgerEvent) error
}

// EventPublisher publishes ledger events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}
