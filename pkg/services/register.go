package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
	"github.com/labfoundry/workbench-engine/pkg/audit"
	"github.com/labfoundry/workbench-engine/pkg/logging"
	"github.com/labfoundry/workbench-engine/pkg/models"
	"github.com/labfoundry/workbench-engine/pkg/store"
	"github.com/labfoundry/workbench-engine/pkg/validation"
)

// AuthProviderInfo describes the authentication provider used to derive
// the identity namespace for self-registered users.
type AuthProviderInfo struct {
	// ID is the authentication provider id.
	ID string
	// Title is the provider's display name, used as the identity
	// provider name when no federated identity provider is configured.
	Title string
	// FederatedIdentityProviders lists federated IdP names; the first
	// one, when present, names the identity provider.
	FederatedIdentityProviders []string
}

// IdentityProviderName resolves the effective identity provider name.
func (a AuthProviderInfo) IdentityProviderName() string {
	if len(a.FederatedIdentityProviders) == 0 {
		return a.Title
	}
	return a.FederatedIdentityProviders[0]
}

// RegisterUserInput is the self-registration payload.
type RegisterUserInput struct {
	FirstName string `json:"firstName" validate:"required,max=500"`
	LastName  string `json:"lastName" validate:"required,max=500"`
	Email     string `json:"email" validate:"required,email,max=320"`
}

// RegisterUserService creates pending user identities with
// idempotent-by-identity semantics: registering an identity that already
// exists is a silent no-op so callers cannot probe for existing accounts.
type RegisterUserService interface {
	Register(ctx context.Context, p models.Principal, input RegisterUserInput) error
}

type registerUserService struct {
	users     store.RecordStore
	userSvc   UserService
	provider  AuthProviderInfo
	validator *validation.Service
	auditor   *audit.Writer
	logger    *zap.Logger
}

// NewRegisterUserService creates a registration service over the users
// record table.
func NewRegisterUserService(
	users store.RecordStore,
	userSvc UserService,
	provider AuthProviderInfo,
	validator *validation.Service,
	auditor *audit.Writer,
	logger *zap.Logger,
) RegisterUserService {
	return &registerUserService{
		users:     users,
		userSvc:   userSvc,
		provider:  provider,
		validator: validator,
		auditor:   auditor,
		logger:    logger,
	}
}

var _ RegisterUserService = (*registerUserService)(nil)

func (s *registerUserService) Register(ctx context.Context, p models.Principal, input RegisterUserInput) error {
	if err := s.validator.EnsureValid(input); err != nil {
		return err
	}

	user := s.formatUser(input)

	// Known limitation: this existence check and the conditional create
	// below are keyed on different key spaces (principal identity vs the
	// freshly generated uid), so two concurrent registrations of the
	// same identity can both pass the check and produce two records.
	existing, err := s.userSvc.FindUserByPrincipal(ctx, user.Username, user.AuthenticationProviderID, user.IdentityProviderName)
	if err != nil {
		return err
	}
	if existing != nil {
		// Treated as success so registration cannot leak which
		// identities already exist.
		s.logger.Error("attempt to register a user who already exists",
			zap.String("uid", existing.UID),
			zap.String("username", logging.SanitizeEmail(existing.Username)),
		)
		return nil
	}

	rec, err := user.ToRecord()
	if err != nil {
		return err
	}
	stored, err := s.users.ConditionalCreate(ctx, rec)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			// Only reachable on a uid-generation collision.
			return apperrors.BadRequestf("user with uid %q already exists", user.UID)
		}
		return err
	}

	created, err := models.UserFromRecord(stored)
	if err != nil {
		return err
	}
	s.auditor.WriteAndForget(ctx, p, audit.Event{
		Action: models.AuditActionRegisterUser,
		Body: map[string]any{
			"uid":      created.UID,
			"username": created.Username,
			"ns":       created.NS,
			"status":   created.Status,
		},
	})
	return nil
}

// formatUser derives the canonical identity record for a registration.
func (s *registerUserService) formatUser(input RegisterUserInput) *models.User {
	email := strings.ToLower(input.Email)
	idpName := s.provider.IdentityProviderName()

	return &models.User{
		UID:                      "u-" + uuid.NewString(),
		Username:                 email,
		Email:                    email,
		FirstName:                input.FirstName,
		LastName:                 input.LastName,
		NS:                       toUserNamespace(s.provider.ID, idpName),
		IdentityProviderName:     idpName,
		AuthenticationProviderID: s.provider.ID,
		UserRole:                 models.RoleResearcher,
		Status:                   models.StatusPending,
		ProjectIDs:               []string{},
		CreatedBy:                models.SystemUID,
	}
}

// toUserNamespace builds the identity namespace a user belongs to.
func toUserNamespace(authenticationProviderID, identityProviderName string) string {
	return fmt.Sprintf("%s/%s", authenticationProviderID, identityProviderName)
}
