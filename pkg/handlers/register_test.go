package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
	"github.com/labfoundry/workbench-engine/pkg/handlers"
	"github.com/labfoundry/workbench-engine/pkg/models"
	"github.com/labfoundry/workbench-engine/pkg/services"
)

type mockRegisterService struct {
	registerFunc func(ctx context.Context, p models.Principal, input services.RegisterUserInput) error
}

func (m *mockRegisterService) Register(ctx context.Context, p models.Principal, input services.RegisterUserInput) error {
	return m.registerFunc(ctx, p, input)
}

var _ services.RegisterUserService = (*mockRegisterService)(nil)

func newRegisterMux(svc services.RegisterUserService) *http.ServeMux {
	mux := http.NewServeMux()
	handlers.NewRegisterHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestRegisterHandler_IsPublicAndActsAsAnonymous(t *testing.T) {
	var gotPrincipal models.Principal
	svc := &mockRegisterService{
		registerFunc: func(ctx context.Context, p models.Principal, input services.RegisterUserInput) error {
			gotPrincipal = p
			assert.Equal(t, "ada@example.com", input.Email)
			return nil
		},
	}
	mux := newRegisterMux(svc)

	body := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "anonymous", gotPrincipal.UID)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRegisterHandler_ValidationErrorsMapTo400(t *testing.T) {
	svc := &mockRegisterService{
		registerFunc: func(ctx context.Context, p models.Principal, input services.RegisterUserInput) error {
			return apperrors.Validationf("Email failed \"email\" validation")
		},
	}
	mux := newRegisterMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"email":"nope"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterHandler_RejectsMalformedBody(t *testing.T) {
	mux := newRegisterMux(&mockRegisterService{})

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
