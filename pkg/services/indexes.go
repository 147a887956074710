package services

import (
	"context"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
	"github.com/labfoundry/workbench-engine/pkg/models"
	"github.com/labfoundry/workbench-engine/pkg/store"
)

// IndexService lists cost-center indexes. Like cloud accounts, reads are
// restricted to admin or system principals.
type IndexService interface {
	List(ctx context.Context, p models.Principal) ([]*models.Index, error)
}

type indexService struct {
	indexes   store.RecordStore
	scanLimit int
}

// NewIndexService creates an index service over the indexes record table.
func NewIndexService(indexes store.RecordStore, scanLimit int) IndexService {
	return &indexService{indexes: indexes, scanLimit: scanLimit}
}

var _ IndexService = (*indexService)(nil)

func (s *indexService) List(ctx context.Context, p models.Principal) ([]*models.Index, error) {
	if !p.IsAdmin() && !p.IsSystem() {
		return nil, apperrors.Forbiddenf("you are not authorized to list indexes")
	}

	records, err := s.indexes.Scan(ctx, s.scanLimit, nil)
	if err != nil {
		return nil, err
	}

	indexes := make([]*models.Index, 0, len(records))
	for _, rec := range records {
		index, err := models.IndexFromRecord(rec)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, index)
	}
	return indexes, nil
}
