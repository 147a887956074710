// Package services implements the workbench's domain services on top of
// the record store, authorization gate, validator and audit writer.
package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
	"github.com/labfoundry/workbench-engine/pkg/models"
	"github.com/labfoundry/workbench-engine/pkg/store"
)

// identityScanLimit bounds the principal-lookup table scan. The user
// collection is small; a scan keeps the store contract minimal.
const identityScanLimit = 1000

// UserService is the identity lookup collaborator consumed by the
// project and registration services.
type UserService interface {
	// MustFindUser returns the user record for a uid or fails with NotFound.
	MustFindUser(ctx context.Context, uid string) (*models.User, error)

	// FindUserByPrincipal looks up a user by its authentication identity.
	// Returns (nil, nil) when no such user exists.
	FindUserByPrincipal(ctx context.Context, username, authenticationProviderID, identityProviderName string) (*models.User, error)
}

type userService struct {
	users  store.RecordStore
	logger *zap.Logger
}

// NewUserService creates a user service over the users record table.
func NewUserService(users store.RecordStore, logger *zap.Logger) UserService {
	return &userService{users: users, logger: logger}
}

var _ UserService = (*userService)(nil)

func (s *userService) MustFindUser(ctx context.Context, uid string) (*models.User, error) {
	rec, err := s.users.Get(ctx, uid, nil)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NotFoundf("user with uid %q does not exist", uid)
	}
	return models.UserFromRecord(rec)
}

func (s *userService) FindUserByPrincipal(ctx context.Context, username, authenticationProviderID, identityProviderName string) (*models.User, error) {
	records, err := s.users.Scan(ctx, identityScanLimit, nil)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		user, err := models.UserFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if user.Username == username &&
			user.AuthenticationProviderID == authenticationProviderID &&
			user.IdentityProviderName == identityProviderName {
			return user, nil
		}
	}
	return nil, nil
}
