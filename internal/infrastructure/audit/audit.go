// Package audit persists the structured record of transactions that
// escalate to MANUAL_ACTION_REQUIRED, alongside the zap log line and
// the metrics counter the orchestrator already emits for the same
// event, so an operator reconciling the ledger by hand has a durable
// trail to query instead of only a log search.
package audit

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger writes audit_events rows. A failure to write is logged but
// never propagated — losing the audit trail must not block the
// orchestrator from persisting the transaction's own terminal state.
type Logger struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewLogger(db *sql.DB, logger *zap.Logger) *Logger {
	return &Logger{db: db, logger: logger}
}

// RecordManualAction records that txID was escalated for the given
// reason (e.g. COMPENSATION_FAILED).
func (l *Logger) RecordManualAction(ctx context.Context, txID uuid.UUID, reason string) {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, transaction_id, action, reason) VALUES ($1, $2, $3, $4)`,
		uuid.New(), txID, "manual_action_required", reason,
	)
	if err != nil {
		l.logger.Error("failed to persist audit event",
			zap.String("transaction_id", txID.String()),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}
