package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/auth"
	"github.com/labfoundry/workbench-engine/pkg/handlers"
	"github.com/labfoundry/workbench-engine/pkg/models"
)

type stubAuditRepository struct {
	recent  []*models.AuditLogEntry
	byActor map[string][]*models.AuditLogEntry
}

func (s *stubAuditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	return nil
}

func (s *stubAuditRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	return s.recent, nil
}

func (s *stubAuditRepository) ListByActor(ctx context.Context, actor string, limit int) ([]*models.AuditLogEntry, error) {
	return s.byActor[actor], nil
}

func newAuditMux(repo *stubAuditRepository) *http.ServeMux {
	logger := zap.NewNop()
	middleware := auth.NewMiddleware(auth.NewService(testSigningKey, true), logger)

	mux := http.NewServeMux()
	handlers.NewAuditHandler(repo, 100, logger).RegisterRoutes(mux, middleware)
	return mux
}

func TestAuditHandler_AdminListsRecentEntries(t *testing.T) {
	repo := &stubAuditRepository{
		recent: []*models.AuditLogEntry{
			{Action: models.AuditActionCreateProject, Actor: "u-admin", CreatedAt: time.Now().UTC()},
			{Action: models.AuditActionRegisterUser, Actor: "anonymous", CreatedAt: time.Now().UTC()},
		},
	}
	mux := newAuditMux(repo)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, bearerRequest(t, http.MethodGet, "/api/audit", "", testAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []*models.AuditLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionCreateProject, entries[0].Action)
}

func TestAuditHandler_ActorFilter(t *testing.T) {
	repo := &stubAuditRepository{
		byActor: map[string][]*models.AuditLogEntry{
			"u-res": {{Action: models.AuditActionUpdateProject, Actor: "u-res"}},
		},
	}
	mux := newAuditMux(repo)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, bearerRequest(t, http.MethodGet, "/api/audit?actor=u-res", "", testAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []*models.AuditLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "u-res", entries[0].Actor)
}

func TestAuditHandler_NonAdminIsForbidden(t *testing.T) {
	mux := newAuditMux(&stubAuditRepository{})

	researcher := models.Principal{UID: "u-res", Role: models.RoleResearcher, Status: models.StatusActive}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, bearerRequest(t, http.MethodGet, "/api/audit", "", researcher))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuditHandler_RequiresAuthentication(t *testing.T) {
	mux := newAuditMux(&stubAuditRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
