package models

import (
	"encoding/json"
	"fmt"

	"github.com/labfoundry/workbench-engine/pkg/store"
)

// identity field names reserved by the record store. They live on the
// record itself, never inside the Fields payload.
var identityFields = map[string]bool{
	"rev":       true,
	"createdBy": true,
	"updatedBy": true,
}

// toRecord converts a typed model into a store record. keyField names the
// model's JSON key that becomes the record id (e.g. "id" for projects,
// "uid" for users).
func toRecord(v any, keyField string) (*store.Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record fields: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode record fields: %w", err)
	}

	rec := &store.Record{Fields: fields}
	if id, ok := fields[keyField].(string); ok {
		rec.ID = id
	}
	if rev, ok := fields["rev"].(float64); ok {
		rec.Rev = int64(rev)
	}
	if by, ok := fields["createdBy"].(string); ok {
		rec.CreatedBy = by
	}
	if by, ok := fields["updatedBy"].(string); ok {
		rec.UpdatedBy = by
	}
	delete(fields, keyField)
	for k := range identityFields {
		delete(fields, k)
	}
	return rec, nil
}

// fromRecord converts a store record back into a typed model.
func fromRecord(rec *store.Record, keyField string, into any) error {
	if rec == nil {
		return fmt.Errorf("cannot decode nil record")
	}
	fields := make(map[string]any, len(rec.Fields)+4)
	for k, v := range rec.Fields {
		fields[k] = v
	}
	fields[keyField] = rec.ID
	fields["rev"] = rec.Rev
	if rec.CreatedBy != "" {
		fields["createdBy"] = rec.CreatedBy
	}
	if rec.UpdatedBy != "" {
		fields["updatedBy"] = rec.UpdatedBy
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal record fields: %w", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
