package services

import (
	"context"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
	"github.com/labfoundry/workbench-engine/pkg/models"
	"github.com/labfoundry/workbench-engine/pkg/store"
)

// CloudAccountService lists linked cloud accounts. Reads are restricted
// to admin or system principals; the project service reaches it through
// the elevated system principal during enrichment.
type CloudAccountService interface {
	List(ctx context.Context, p models.Principal) ([]*models.CloudAccount, error)
}

type cloudAccountService struct {
	accounts  store.RecordStore
	scanLimit int
}

// NewCloudAccountService creates a cloud account service over the
// cloud_accounts record table.
func NewCloudAccountService(accounts store.RecordStore, scanLimit int) CloudAccountService {
	return &cloudAccountService{accounts: accounts, scanLimit: scanLimit}
}

var _ CloudAccountService = (*cloudAccountService)(nil)

func (s *cloudAccountService) List(ctx context.Context, p models.Principal) ([]*models.CloudAccount, error) {
	if !p.IsAdmin() && !p.IsSystem() {
		return nil, apperrors.Forbiddenf("you are not authorized to list cloud accounts")
	}

	records, err := s.accounts.Scan(ctx, s.scanLimit, nil)
	if err != nil {
		return nil, err
	}

	accounts := make([]*models.CloudAccount, 0, len(records))
	for _, rec := range records {
		account, err := models.CloudAccountFromRecord(rec)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}
