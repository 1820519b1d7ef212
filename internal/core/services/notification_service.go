package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
)

const notifyTimeout = 15 * time.Second

// NotificationService fans a ledger event out to the wallet webhook and the
// message broker. Delivery is strictly best effort: failures are logged and
// swallowed so a slow or dead downstream can never affect a committed
// posting. Callers invoke Notify after commit, usually on a goroutine.
type NotificationService struct {
	webhook   portssvc.WebhookPoster
	publisher portssvc.EventPublisher
}

func NewNotificationService(webhook portssvc.WebhookPoster, publisher portssvc.EventPublisher) *NotificationService {
	return &NotificationService{webhook: webhook, publisher: publisher}
}

var _ portssvc.NotificationSvcFacade = (*NotificationService)(nil)

func (s *NotificationService) Notify(ctx context.Context, event domain.LedgerEvent) {
	logger := middleware.GetLoggerFromCtx(ctx)

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if s.webhook != nil {
		if err := s.webhook.Post(ctx, event); err != nil {
			logger.Warn("Wallet webhook delivery failed",
				slog.String("kind", event.Kind),
				slog.String("transaction_id", event.TransactionID),
				slog.String("error", err.Error()))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event.Kind, event); err != nil {
			logger.Warn("Event publish failed",
				slog.String("kind", event.Kind),
				slog.String("transaction_id", event.TransactionID),
				slog.String("error", err.Error()))
		}
	}
}
