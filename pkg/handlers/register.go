package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/models"
	"github.com/labfoundry/workbench-engine/pkg/services"
)

// RegisterHandler handles self-registration requests. The endpoint is
// public by design; the acting principal is the anonymous caller.
type RegisterHandler struct {
	registerService services.RegisterUserService
	logger          *zap.Logger
}

// NewRegisterHandler creates a registration handler.
func NewRegisterHandler(registerService services.RegisterUserService, logger *zap.Logger) *RegisterHandler {
	return &RegisterHandler{registerService: registerService, logger: logger}
}

// RegisterRoutes registers the registration route on the given mux.
func (h *RegisterHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", h.Register)
}

// Register handles POST /api/register. Duplicate registrations return
// the same success response as new ones.
func (h *RegisterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterUserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid JSON body"); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return
	}

	anonymous := models.Principal{UID: "anonymous"}
	if err := h.registerService.Register(r.Context(), anonymous, input); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"}); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
