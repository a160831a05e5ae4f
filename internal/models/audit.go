package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionLogin  = "login"
	AuditActionLogout = "logout"
)

// AuditLogEntry is append-only: rows are inserted alongside mutating
// actions and never updated or deleted.
type AuditLogEntry struct {
	bun.BaseModel `bun:"table:audit_log"`

	ID          string    `bun:"id,pk" json:"id"`
	ActorUserID string    `bun:"actor_user_id,notnull" json:"actor_user_id"`
	ActorEmail  string    `bun:"actor_email,notnull" json:"actor_email"`
	Action      string    `bun:"action,notnull" json:"action"`
	EntityType  string    `bun:"entity_type,notnull" json:"entity_type"`
	EntityID    string    `bun:"entity_id,nullzero" json:"entity_id,omitempty"`
	Summary     string    `bun:"summary,nullzero" json:"summary,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}
