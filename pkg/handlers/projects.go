package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/auth"
	"github.com/labfoundry/workbench-engine/pkg/services"
)

// ProjectsHandler handles project CRUD HTTP requests.
type ProjectsHandler struct {
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewProjectsHandler creates a projects handler.
func NewProjectsHandler(projectService services.ProjectService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{projectService: projectService, logger: logger}
}

// RegisterRoutes registers the projects routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/projects", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/projects", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/projects/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/projects/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/projects/{id}", authMiddleware.RequireAuth(h.Delete))
}

// fieldsParam parses the ?fields=a,b,c projection parameter.
func fieldsParam(r *http.Request) []string {
	raw := r.URL.Query().Get("fields")
	if raw == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// List handles GET /api/projects.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		h.unauthenticated(w)
		return
	}

	projects, err := h.projectService.List(r.Context(), principal, fieldsParam(r))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, projects); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/projects/{id}.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		h.unauthenticated(w)
		return
	}

	project, err := h.projectService.MustFind(r.Context(), principal, r.PathValue("id"), fieldsParam(r))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, project); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/projects.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		h.unauthenticated(w)
		return
	}

	var input services.CreateProjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid JSON body"); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return
	}

	project, err := h.projectService.Create(r.Context(), principal, input)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusCreated, project); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/projects/{id}.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		h.unauthenticated(w)
		return
	}

	var input services.UpdateProjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid JSON body"); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return
	}
	input.ID = r.PathValue("id")

	project, err := h.projectService.Update(r.Context(), principal, input)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, project); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/projects/{id}.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		h.unauthenticated(w)
		return
	}

	if err := h.projectService.Delete(r.Context(), principal, r.PathValue("id")); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectsHandler) unauthenticated(w http.ResponseWriter) {
	if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
		h.logger.Error("failed to write error response", zap.Error(err))
	}
}
