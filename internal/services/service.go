package services

import (
	"context"
	"fmt"
	"log/slog"

	"parcela/internal/amqp"
	"parcela/internal/core"
)

// TransactionService orchestrates transaction creation and listing across
// the storage collaborator and the event exchange.
type TransactionService struct {
	store   TransactionStore
	builder *GroupBuilder
	events  *amqp.Client
}

// NewTransactionService wires the service. The AMQP client may be nil, in
// which case mutation events are skipped.
func NewTransactionService(store TransactionStore, events *amqp.Client) *TransactionService {
	return &TransactionService{
		store:   store,
		builder: NewGroupBuilder(),
		events:  events,
	}
}

// Create expands the intent into its record set and persists the whole batch
// atomically. All intent validation happens before the storage round trip, so
// a rejected intent leaves no partial state behind.
func (s *TransactionService) Create(ctx context.Context, intent Intent) ([]core.Transaction, error) {
	records, err := s.builder.Build(intent)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.InsertBatch(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("insert transaction batch: %w", err)
	}

	slog.InfoContext(ctx, "Transactions created",
		"user_id", intent.UserID,
		"count", len(stored),
		"group_id", stored[0].GroupID,
		"group_kind", string(stored[0].GroupKind))

	s.publishEvent(ctx, amqp.ActionCreated, stored[0].ID, stored[0].GroupID, intent.UserID)
	return stored, nil
}

// List returns the user's transactions, filtered and ordered.
func (s *TransactionService) List(ctx context.Context, userID int64, filters Filters) ([]core.Transaction, error) {
	records, err := s.store.ListByUser(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return records, nil
}

// publishEvent is best-effort: a broken exchange never fails the user
// operation, the record set is already durable in storage.
func (s *TransactionService) publishEvent(ctx context.Context, action string, txID int64, groupID string, userID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, action, txID, groupID, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action,
			"transaction_id", txID,
			"error", err)
	}
}
