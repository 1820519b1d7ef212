package models

import "time"

// AuditLog is the database representation of a mutation snapshot.
type AuditLog struct {
	AuditID     string    `db:"audit_id"`
	EntityType  string    `db:"entity_type"`
	EntityID    string    `db:"entity_id"`
	Action      string    `db:"action"`
	BeforeState []byte    `db:"before_state"` // JSONB, nullable
	AfterState  []byte    `db:"after_state"`  // JSONB, nullable
	ActorID     string    `db:"actor_id"`
	CreatedAt   time.Time `db:"created_at"`
}
