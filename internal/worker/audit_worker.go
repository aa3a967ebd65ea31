package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parcela/internal/amqp"
)

// EventRecorder persists transaction events into the audit log.
type EventRecorder interface {
	RecordEvent(ctx context.Context, action string, txID int64, groupID string, userID int64, occurredAt time.Time) error
}

// AuditWorker consumes transaction events from AMQP and writes them to the
// audit log table.
type AuditWorker struct {
	storage EventRecorder
}

func NewAuditWorker(storage EventRecorder) *AuditWorker {
	return &AuditWorker{storage: storage}
}

// HandleEventMessage processes a single transaction event from AMQP.
func (w *AuditWorker) HandleEventMessage(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", msg.Action,
		"transaction_id", msg.TransactionID)

	occurredAt := msg.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	if err := w.storage.RecordEvent(ctx, msg.Action, msg.TransactionID, msg.GroupID, msg.UserID, occurredAt); err != nil {
		return fmt.Errorf("record transaction event: %w", err)
	}

	slog.InfoContext(ctx, "Transaction event recorded",
		"action", msg.Action,
		"transaction_id", msg.TransactionID,
		"user_id", msg.UserID)

	return nil
}
