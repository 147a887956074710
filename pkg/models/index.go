package models

import "github.com/labfoundry/workbench-engine/pkg/store"

// Index represents a cost-center index record linking projects to a
// cloud account.
type Index struct {
	ID          string `json:"id"`
	Rev         int64  `json:"rev"`
	AccountID   string `json:"accountId"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
	UpdatedBy   string `json:"updatedBy,omitempty"`
}

// ToRecord converts the index into its stored record form.
func (i *Index) ToRecord() (*store.Record, error) {
	return toRecord(i, "id")
}

// IndexFromRecord decodes a stored record into an Index.
func IndexFromRecord(rec *store.Record) (*Index, error) {
	var i Index
	if err := fromRecord(rec, "id", &i); err != nil {
		return nil, err
	}
	return &i, nil
}
