package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/auth"
	"github.com/labfoundry/workbench-engine/pkg/repositories"
)

// AuditHandler exposes the audit log to administrators.
type AuditHandler struct {
	auditRepo repositories.AuditRepository
	listLimit int
	logger    *zap.Logger
}

// NewAuditHandler creates an audit log handler.
func NewAuditHandler(auditRepo repositories.AuditRepository, listLimit int, logger *zap.Logger) *AuditHandler {
	if listLimit <= 0 {
		listLimit = 100
	}
	return &AuditHandler{auditRepo: auditRepo, listLimit: listLimit, logger: logger}
}

// RegisterRoutes registers the audit routes on the given mux.
func (h *AuditHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/audit", authMiddleware.RequireAuth(h.List))
}

// List handles GET /api/audit. Admin only; supports ?actor=<uid>.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok || !principal.IsAdmin() {
		if err := ErrorResponse(w, http.StatusForbidden, "forbidden", "Admin access required"); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return
	}

	var err error
	var entries any
	if actor := r.URL.Query().Get("actor"); actor != "" {
		entries, err = h.auditRepo.ListByActor(r.Context(), actor, h.listLimit)
	} else {
		entries, err = h.auditRepo.ListRecent(r.Context(), h.listLimit)
	}
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, entries); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
