// Package models contains domain types for workbench-engine.
package models

// SystemUID is the reserved uid for internal system operations.
const SystemUID = "_system_"

// Role constants for workbench users.
const (
	RoleAdmin              = "admin"
	RoleResearcher         = "researcher"
	RoleExternalResearcher = "external-researcher"
	RoleInternalGuest      = "internal-guest"
	RoleExternalGuest      = "external-guest"
)

// Status constants for workbench users.
const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusInactive = "inactive"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleResearcher, RoleExternalResearcher, RoleInternalGuest, RoleExternalGuest}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller of a service operation.
// It is supplied per call and never stored by the services themselves.
type Principal struct {
	UID      string `json:"uid"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// SystemPrincipal returns the elevated principal used for internal
// cross-entity lookups (e.g. enrichment reads a non-admin caller could
// not perform directly). It must never be handed to external callers.
func SystemPrincipal() Principal {
	return Principal{
		UID:    SystemUID,
		Role:   RoleAdmin,
		Status: StatusActive,
	}
}

// IsSystem reports whether the principal is the internal system identity.
func (p Principal) IsSystem() bool {
	return p.UID == SystemUID
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsActive reports whether the principal's account is active.
func (p Principal) IsActive() bool {
	return p.Status == StatusActive
}

// IsRestricted reports whether the principal's role is blanket-denied
// project visibility regardless of associations.
func (p Principal) IsRestricted() bool {
	switch p.Role {
	case RoleExternalGuest, RoleExternalResearcher, RoleInternalGuest:
		return true
	}
	return false
}
