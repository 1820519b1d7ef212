package services

import (
	"context"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
)

// NotificationSvcFacade is the best-effort downstream notification surface.
// Notify never reports failure to its caller; delivery problems are logged
// and swallowed so they can never abort or delay a committed posting.
type NotificationSvcFacade interface {
	Notify(ctx context.Context, event domain.LedgerEvent)
}
