package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
	"github.com/labfoundry/workbench-engine/pkg/auth"
	"github.com/labfoundry/workbench-engine/pkg/handlers"
	"github.com/labfoundry/workbench-engine/pkg/models"
	"github.com/labfoundry/workbench-engine/pkg/services"
	"github.com/labfoundry/workbench-engine/pkg/testhelpers"
)

const testSigningKey = "test-signing-key"

// mockProjectService lets each test script the service layer.
type mockProjectService struct {
	findFunc     func(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error)
	mustFindFunc func(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error)
	createFunc   func(ctx context.Context, p models.Principal, input services.CreateProjectInput) (*models.Project, error)
	updateFunc   func(ctx context.Context, p models.Principal, input services.UpdateProjectInput) (*models.Project, error)
	deleteFunc   func(ctx context.Context, p models.Principal, id string) error
	listFunc     func(ctx context.Context, p models.Principal, fields []string) ([]*models.Project, error)
}

func (m *mockProjectService) Find(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error) {
	return m.findFunc(ctx, p, id, fields)
}

func (m *mockProjectService) MustFind(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error) {
	return m.mustFindFunc(ctx, p, id, fields)
}

func (m *mockProjectService) Create(ctx context.Context, p models.Principal, input services.CreateProjectInput) (*models.Project, error) {
	return m.createFunc(ctx, p, input)
}

func (m *mockProjectService) Update(ctx context.Context, p models.Principal, input services.UpdateProjectInput) (*models.Project, error) {
	return m.updateFunc(ctx, p, input)
}

func (m *mockProjectService) Delete(ctx context.Context, p models.Principal, id string) error {
	return m.deleteFunc(ctx, p, id)
}

func (m *mockProjectService) List(ctx context.Context, p models.Principal, fields []string) ([]*models.Project, error) {
	return m.listFunc(ctx, p, fields)
}

var _ services.ProjectService = (*mockProjectService)(nil)

func newProjectsMux(svc services.ProjectService) *http.ServeMux {
	logger := zap.NewNop()
	middleware := auth.NewMiddleware(auth.NewService(testSigningKey, true), logger)

	mux := http.NewServeMux()
	handlers.NewProjectsHandler(svc, logger).RegisterRoutes(mux, middleware)
	return mux
}

func bearerRequest(t *testing.T, method, target string, body string, p models.Principal) *http.Request {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+testhelpers.SignTestToken(t, testSigningKey, p))
	return req
}

var testAdmin = models.Principal{
	UID:      "u-admin",
	Username: "admin@example.com",
	Role:     models.RoleAdmin,
	Status:   models.StatusActive,
}

func TestProjectsHandler_RequiresAuthentication(t *testing.T) {
	mux := newProjectsMux(&mockProjectService{})

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/projects"},
		{http.MethodPost, "/api/projects"},
		{http.MethodGet, "/api/projects/p1"},
		{http.MethodPut, "/api/projects/p1"},
		{http.MethodDelete, "/api/projects/p1"},
	} {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.target)
	}
}

func TestProjectsHandler_GetPassesPrincipalAndFields(t *testing.T) {
	svc := &mockProjectService{
		mustFindFunc: func(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error) {
			assert.Equal(t, "u-admin", p.UID)
			assert.Equal(t, "p1", id)
			assert.Equal(t, []string{"id", "description"}, fields)
			return &models.Project{ID: id, Rev: 3, Description: "alpha"}, nil
		},
	}
	mux := newProjectsMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, bearerRequest(t, http.MethodGet, "/api/projects/p1?fields=id,description", "", testAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	var project models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &project))
	assert.Equal(t, "p1", project.ID)
	assert.Equal(t, int64(3), project.Rev)
}

func TestProjectsHandler_CreateReturns201(t *testing.T) {
	svc := &mockProjectService{
		createFunc: func(ctx context.Context, p models.Principal, input services.CreateProjectInput) (*models.Project, error) {
			assert.Equal(t, "p1", input.ID)
			return &models.Project{ID: input.ID, Rev: 0, CreatedBy: p.UID, UpdatedBy: p.UID}, nil
		},
	}
	mux := newProjectsMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, bearerRequest(t, http.MethodPost, "/api/projects", `{"id":"p1"}`, testAdmin))

	require.Equal(t, http.StatusCreated, rec.Code)
	var project models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &project))
	assert.Equal(t, int64(0), project.Rev)
	assert.Equal(t, "u-admin", project.CreatedBy)
}

func TestProjectsHandler_CreateRejectsMalformedBody(t *testing.T) {
	mux := newProjectsMux(&mockProjectService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, bearerRequest(t, http.MethodPost, "/api/projects", `{"id":`, testAdmin))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectsHandler_UpdateUsesPathID(t *testing.T) {
	svc := &mockProjectService{
		updateFunc: func(ctx context.Context, p models.Principal, input services.UpdateProjectInput) (*models.Project, error) {
			assert.Equal(t, "p1", input.ID, "path id must win over any body id")
			require.NotNil(t, input.Rev)
			assert.Equal(t, int64(0), *input.Rev)
			return &models.Project{ID: input.ID, Rev: 1, Description: input.Description}, nil
		},
	}
	mux := newProjectsMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, bearerRequest(t, http.MethodPut, "/api/projects/p1", `{"id":"other","rev":0,"description":"x"}`, testAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	var project models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &project))
	assert.Equal(t, int64(1), project.Rev)
}

func TestProjectsHandler_DeleteReturns204(t *testing.T) {
	svc := &mockProjectService{
		deleteFunc: func(ctx context.Context, p models.Principal, id string) error {
			assert.Equal(t, "p1", id)
			return nil
		},
	}
	mux := newProjectsMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, bearerRequest(t, http.MethodDelete, "/api/projects/p1", "", testAdmin))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestProjectsHandler_ErrorTaxonomyStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"forbidden", apperrors.Forbiddenf("you are not authorized to access project %q", "p1"), http.StatusForbidden, "forbidden"},
		{"not found", apperrors.NotFoundf("project with id %q does not exist", "p1"), http.StatusNotFound, "not_found"},
		{"bad request", apperrors.BadRequestf("project information changed just before your request is processed, please try again"), http.StatusBadRequest, "bad_request"},
		{"validation", apperrors.Validationf("input is not valid"), http.StatusBadRequest, "bad_request"},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockProjectService{
				mustFindFunc: func(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error) {
					return nil, tt.err
				},
			}
			mux := newProjectsMux(svc)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, bearerRequest(t, http.MethodGet, "/api/projects/p1", "", testAdmin))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, body["message"], "connection refused", "internal detail must not leak")
			}
		})
	}
}

func TestProjectsHandler_ListReturnsArray(t *testing.T) {
	svc := &mockProjectService{
		listFunc: func(ctx context.Context, p models.Principal, fields []string) ([]*models.Project, error) {
			return []*models.Project{{ID: "p1"}, {ID: "p2"}}, nil
		},
	}
	mux := newProjectsMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, bearerRequest(t, http.MethodGet, "/api/projects", "", testAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	var projects []*models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 2)
	assert.Equal(t, "p1", projects[0].ID)
	assert.Equal(t, "p2", projects[1].ID)
}
