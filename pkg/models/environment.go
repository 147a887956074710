package models

import "github.com/labfoundry/workbench-engine/pkg/store"

// Environment represents a provisioned research environment (workspace)
// that belongs to a project. Project deletion is refused while any
// environment still references the project.
type Environment struct {
	ID        string `json:"id"`
	Rev       int64  `json:"rev"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
	UpdatedBy string `json:"updatedBy,omitempty"`
}

// ToRecord converts the environment into its stored record form.
func (e *Environment) ToRecord() (*store.Record, error) {
	return toRecord(e, "id")
}

// EnvironmentFromRecord decodes a stored record into an Environment.
func EnvironmentFromRecord(rec *store.Record) (*Environment, error) {
	var e Environment
	if err := fromRecord(rec, "id", &e); err != nil {
		return nil, err
	}
	return &e, nil
}
