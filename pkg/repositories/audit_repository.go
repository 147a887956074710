// Package repositories contains data access for tables that are not
// record tables (currently the append-only audit log).
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labfoundry/workbench-engine/pkg/models"
)

// AuditRepository provides append and read access to the audit log.
type AuditRepository interface {
	// Create inserts a new audit log entry.
	Create(ctx context.Context, entry *models.AuditLogEntry) error

	// ListRecent returns the newest entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.AuditLogEntry, error)

	// ListByActor returns the newest entries for a principal uid, newest first.
	ListByActor(ctx context.Context, actor string, limit int) ([]*models.AuditLogEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates an AuditRepository over PostgreSQL.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var bodyJSON []byte
	var err error
	if len(entry.Body) > 0 {
		bodyJSON, err = json.Marshal(entry.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal audit body: %w", err)
		}
	}

	query := `
		INSERT INTO audit_log (id, action, actor, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.pool.Exec(ctx, query, entry.ID, entry.Action, entry.Actor, bodyJSON, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}
	return nil
}

func (r *auditRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT id, action, actor, body, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func (r *auditRepository) ListByActor(ctx context.Context, actor string, limit int) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT id, action, actor, body, created_at
		FROM audit_log
		WHERE actor = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log by actor: %w", err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func collectAuditEntries(rows pgx.Rows) ([]*models.AuditLogEntry, error) {
	var entries []*models.AuditLogEntry
	for rows.Next() {
		var entry models.AuditLogEntry
		var bodyJSON []byte

		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Actor, &bodyJSON, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log entry: %w", err)
		}
		if len(bodyJSON) > 0 {
			if err := json.Unmarshal(bodyJSON, &entry.Body); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit body: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log entries: %w", err)
	}
	return entries, nil
}
