package pgsql

import (
	"context"
	"fmt"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	"github.com/ChangoHQ/chango_backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditColumns = `audit_id, entity_type, entity_id, action, before_state, after_state, actor_id, created_at`

type PgxAuditLogRepository struct {
	BaseRepository
}

// newPgxAuditLogRepository creates a new repository for audit log data.
func newPgxAuditLogRepository(pool *pgxpool.Pool) portsrepo.AuditLogRepositoryFacade {
	return &PgxAuditLogRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditLogRepositoryFacade = (*PgxAuditLogRepository)(nil)

func toModelAuditLog(d domain.AuditLog) models.AuditLog {
	return models.AuditLog{
		AuditID:     d.AuditID,
		EntityType:  d.EntityType,
		EntityID:    d.EntityID,
		Action:      d.Action,
		BeforeState: d.BeforeState,
		AfterState:  d.AfterState,
		ActorID:     d.ActorID,
		CreatedAt:   d.CreatedAt,
	}
}

const auditInsertQuery = `
	INSERT INTO audit_logs (audit_id, entity_type, entity_id, action, before_state, after_state, actor_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`

// Record persists one audit entry outside any caller transaction.
func (r *PgxAuditLogRepository) Record(ctx context.Context, entry domain.AuditLog) error {
	m := toModelAuditLog(entry)
	_, err := r.Pool.Exec(ctx, auditInsertQuery, m.AuditID, m.EntityType, m.EntityID, m.Action, m.BeforeState, m.AfterState, m.ActorID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record audit log for %s %s: %w", m.EntityType, m.EntityID, err)
	}
	return nil
}

// RecordInTx persists one audit entry inside a caller-owned transaction so
// the snapshot commits or rolls back together with the mutation it describes.
func (r *PgxAuditLogRepository) RecordInTx(ctx context.Context, tx pgx.Tx, entry domain.AuditLog) error {
	m := toModelAuditLog(entry)
	_, err := tx.Exec(ctx, auditInsertQuery, m.AuditID, m.EntityType, m.EntityID, m.Action, m.BeforeState, m.AfterState, m.ActorID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record audit log for %s %s: %w", m.EntityType, m.EntityID, err)
	}
	return nil
}

// ListByEntity retrieves audit entries for one entity, newest first.
func (r *PgxAuditLogRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int, offset int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4;
	`

	rows, err := r.Pool.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs for %s %s: %w", entityType, entityID, err)
	}
	defer rows.Close()

	entries := []domain.AuditLog{}
	for rows.Next() {
		var m models.AuditLog
		if err := rows.Scan(&m.AuditID, &m.EntityType, &m.EntityID, &m.Action, &m.BeforeState, &m.AfterState, &m.ActorID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log row: %w", err)
		}
		entries = append(entries, domain.AuditLog{
			AuditID:     m.AuditID,
			EntityType:  m.EntityType,
			EntityID:    m.EntityID,
			Action:      m.Action,
			BeforeState: m.BeforeState,
			AfterState:  m.AfterState,
			ActorID:     m.ActorID,
			CreatedAt:   m.CreatedAt,
		})
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", rows.Err())
	}

	return entries, nil
}
