package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit action names emitted by the workbench services.
const (
	AuditActionCreateProject = "create-project"
	AuditActionUpdateProject = "update-project"
	AuditActionDeleteProject = "delete-project"
	AuditActionRegisterUser  = "register-user"
)

// AuditLogEntry is an immutable, append-only fact recorded after a
// successful mutation. Stored in the audit_log table.
type AuditLogEntry struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"` // principal uid; SystemUID for internal operations
	Body      map[string]any `json:"body,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
