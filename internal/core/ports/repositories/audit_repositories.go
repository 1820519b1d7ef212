package repositories

import (
	"context"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// AuditLogRepositoryFacade persists and lists entity mutation snapshots.
type AuditLogRepositoryFacade interface {
	Record(ctx context.Context, entry domain.AuditLog) error
	RecordInTx(ctx context.Context, tx pgx.Tx, entry domain.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int, offset int) ([]domain.AuditLog, error)
}
