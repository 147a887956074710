// Package audit records best-effort audit events after successful
// mutations. Events are persisted to the audit log and mirrored to a
// dedicated structured logger for SIEM consumption.
package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/models"
	"github.com/labfoundry/workbench-engine/pkg/repositories"
)

// Event is the caller-facing audit payload.
type Event struct {
	Action string
	Body   map[string]any
}

// Writer persists audit events. WriteAndForget must never propagate a
// failure into the caller's result path.
type Writer struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewWriter creates an audit writer. The logger gets an "audit" child
// namespace so audit lines are easy to filter downstream.
func NewWriter(repo repositories.AuditRepository, logger *zap.Logger) *Writer {
	return &Writer{repo: repo, logger: logger.Named("audit")}
}

// Write persists the event synchronously and returns any failure.
func (w *Writer) Write(ctx context.Context, p models.Principal, ev Event) error {
	entry := &models.AuditLogEntry{
		Action:    ev.Action,
		Actor:     p.UID,
		Body:      ev.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.repo.Create(ctx, entry); err != nil {
		return err
	}

	w.logger.Info("audit event",
		zap.String("action", ev.Action),
		zap.String("actor", p.UID),
		zap.Any("body", ev.Body),
	)
	return nil
}

// WriteAndForget records the event on a background goroutine. Failures
// are logged and swallowed; the primary operation's result is never
// delayed or failed by audit emission.
func (w *Writer) WriteAndForget(ctx context.Context, p models.Principal, ev Event) {
	// Detach from the request's cancellation so an already-finished
	// request cannot abort the audit write.
	bgCtx := context.WithoutCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("audit writer panicked", zap.Any("panic", r), zap.String("action", ev.Action))
			}
		}()

		if err := w.Write(bgCtx, p, ev); err != nil {
			w.logger.Error("failed to write audit event",
				zap.String("action", ev.Action),
				zap.String("actor", p.UID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all in-flight background writes have finished.
// Intended for shutdown and tests.
func (w *Writer) Wait() {
	w.wg.Wait()
}
