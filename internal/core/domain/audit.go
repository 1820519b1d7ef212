package domain

import "time"

// AuditLog is a generic before/after snapshot attached to an entity mutation.
// Sensitive fields are redacted before the snapshot is persisted.
type AuditLog struct {
	AuditID     string    `json:"auditID"`    // Primary Key (UUID)
	EntityType  string    `json:"entityType"` // e.g. "account", "transaction", "withdrawal"
	EntityID    string    `json:"entityID"`
	Action      string    `json:"action"` // "create", "update", "delete"
	BeforeState []byte    `json:"-"`      // JSON snapshot, nil on create
	AfterState  []byte    `json:"-"`      // JSON snapshot, nil on delete
	ActorID     string    `json:"actorID"`
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)
