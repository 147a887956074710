package models

import "github.com/labfoundry/workbench-engine/pkg/store"

// Project represents a research project record.
type Project struct {
	ID          string `json:"id"`
	Rev         int64  `json:"rev"`
	IndexID     string `json:"indexId,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
	UpdatedBy   string `json:"updatedBy,omitempty"`

	// IsStreamingConfigured is a derived flag, not a stored field. It is
	// computed from the cloud-account and index record sets during
	// enrichment and is nil when enrichment did not run.
	IsStreamingConfigured *bool `json:"isStreamingConfigured,omitempty"`
}

// ToRecord converts the project into its stored record form. The derived
// enrichment flag is never persisted.
func (p *Project) ToRecord() (*store.Record, error) {
	stored := *p
	stored.IsStreamingConfigured = nil
	return toRecord(&stored, "id")
}

// ProjectFromRecord decodes a stored record into a Project.
func ProjectFromRecord(rec *store.Record) (*Project, error) {
	var p Project
	if err := fromRecord(rec, "id", &p); err != nil {
		return nil, err
	}
	return &p, nil
}
