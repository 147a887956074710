package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
)

// PostgresStore implements RecordStore over a single PostgreSQL table
// shaped as (id, rev, created_by, updated_by, fields jsonb). The
// revision compare-and-swap rides on `WHERE id = $1 AND rev = $2`.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore creates a record store bound to the named table. The
// table name is an identifier under the application's control, never
// caller input; it is still sanitized before interpolation.
func NewPostgresStore(pool *pgxpool.Pool, table string) *PostgresStore {
	return &PostgresStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

var _ RecordStore = (*PostgresStore)(nil)

func (s *PostgresStore) Get(ctx context.Context, id string, fields Projection) (*Record, error) {
	query := fmt.Sprintf(`
		SELECT id, rev, created_by, updated_by, fields
		FROM %s
		WHERE id = $1`, s.table)

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return fields.Apply(rec), nil
}

func (s *PostgresStore) ConditionalCreate(ctx context.Context, rec *Record) (*Record, error) {
	payload, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record fields: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, rev, created_by, updated_by, fields, created_at, updated_at)
		VALUES ($1, 0, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO NOTHING`, s.table)

	result, err := s.pool.Exec(ctx, query, rec.ID, rec.CreatedBy, rec.UpdatedBy, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrAlreadyExists
	}

	stored := rec.Clone()
	stored.Rev = 0
	return stored, nil
}

func (s *PostgresStore) ConditionalUpdate(ctx context.Context, id string, expectedRev int64, rec *Record) (*Record, error) {
	payload, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record fields: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET fields = $3, updated_by = $4, rev = rev + 1, updated_at = now()
		WHERE id = $1 AND rev = $2
		RETURNING id, rev, created_by, updated_by, fields`, s.table)

	stored, err := scanRecord(s.pool.QueryRow(ctx, query, id, expectedRev, payload, rec.UpdatedBy))
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	// Zero rows: either the id is absent or the rev did not match.
	existsQuery := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1`, s.table)
	var one int
	switch err := s.pool.QueryRow(ctx, existsQuery, id).Scan(&one); {
	case err == nil:
		return nil, apperrors.ErrRevisionConflict
	case errors.Is(err, pgx.ErrNoRows):
		return nil, apperrors.ErrNotFound
	default:
		return nil, fmt.Errorf("failed to check record existence: %w", err)
	}
}

func (s *PostgresStore) ConditionalDelete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)

	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Scan(ctx context.Context, limit int, fields Projection) ([]*Record, error) {
	query := fmt.Sprintf(`
		SELECT id, rev, created_by, updated_by, fields
		FROM %s
		ORDER BY created_at, id
		LIMIT $1`, s.table)

	// limit <= 0 means unbounded; LIMIT NULL disables the cap.
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := s.pool.Query(ctx, query, limitArg)
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, fields.Apply(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var payload []byte

	if err := row.Scan(&rec.ID, &rec.Rev, &rec.CreatedBy, &rec.UpdatedBy, &payload); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &rec.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record fields: %w", err)
		}
	}
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	return &rec, nil
}
