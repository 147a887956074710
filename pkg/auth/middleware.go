package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Middleware provides HTTP authentication middleware. It is thin and
// delegates token validation to Service.
type Middleware struct {
	service *Service
	logger  *zap.Logger
}

// NewMiddleware creates an auth middleware.
func NewMiddleware(service *Service, logger *zap.Logger) *Middleware {
	return &Middleware{service: service, logger: logger}
}

// RequireAuth validates the bearer token and stores the resolved
// principal in the request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.service.ValidateRequest(r)
		if err != nil {
			m.logger.Debug("request authentication failed", zap.Error(err))
			m.unauthorized(w, "Authentication required")
			return
		}

		next(w, r.WithContext(SetPrincipal(r.Context(), claims.Principal())))
	}
}

// unauthorized returns a 401 response with a JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
