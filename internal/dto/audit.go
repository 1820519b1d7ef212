package dto

import (
	"encoding/json"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
)

// AuditLogResponse defines the data returned for one audit entry. Snapshots
// are emitted as raw JSON so clients see them as objects, not strings.
type AuditLogResponse struct {
	AuditID     string          `json:"auditID"`
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityID"`
	Action      string          `json:"action"`
	BeforeState json.RawMessage `json:"beforeState,omitempty"`
	AfterState  json.RawMessage `json:"afterState,omitempty"`
	ActorID     string          `json:"actorID"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ToAuditLogResponse converts a domain.AuditLog to its response DTO.
func ToAuditLogResponse(entry *domain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		AuditID:     entry.AuditID,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Action:      entry.Action,
		BeforeState: entry.BeforeState,
		AfterState:  entry.AfterState,
		ActorID:     entry.ActorID,
		CreatedAt:   entry.CreatedAt,
	}
}

// ToListAuditLogResponse converts a slice of audit entries to response DTOs.
func ToListAuditLogResponse(entries []domain.AuditLog) []AuditLogResponse {
	res := make([]AuditLogResponse, len(entries))
	for i := range entries {
		res[i] = ToAuditLogResponse(&entries[i])
	}
	return res
}

// ListAuditParams defines query parameters for listing audit entries.
type ListAuditParams struct {
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset,default=0"`
}
