package models

import "github.com/labfoundry/workbench-engine/pkg/store"

// CloudAccount represents a linked cloud account record. An account is
// considered streaming-capable when all three streaming fields are set.
type CloudAccount struct {
	ID                    string `json:"id"`
	Rev                   int64  `json:"rev"`
	Name                  string `json:"name,omitempty"`
	StreamFleetName       string `json:"streamFleetName,omitempty"`
	StreamSecurityGroupID string `json:"streamSecurityGroupId,omitempty"`
	StreamStackName       string `json:"streamStackName,omitempty"`
	CreatedBy             string `json:"createdBy,omitempty"`
	UpdatedBy             string `json:"updatedBy,omitempty"`
}

// IsStreamingCapable reports whether the account has a complete
// streaming configuration.
func (a *CloudAccount) IsStreamingCapable() bool {
	return a.StreamFleetName != "" && a.StreamSecurityGroupID != "" && a.StreamStackName != ""
}

// ToRecord converts the account into its stored record form.
func (a *CloudAccount) ToRecord() (*store.Record, error) {
	return toRecord(a, "id")
}

// CloudAccountFromRecord decodes a stored record into a CloudAccount.
func CloudAccountFromRecord(rec *store.Record) (*CloudAccount, error) {
	var a CloudAccount
	if err := fromRecord(rec, "id", &a); err != nil {
		return nil, err
	}
	return &a, nil
}
