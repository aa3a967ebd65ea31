package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"parcela/internal/amqp"
	"parcela/internal/core"
)

// MutationController applies edits and deletes to existing transactions,
// scoped either to a single record or to the whole group it belongs to.
type MutationController struct {
	store  TransactionStore
	events *amqp.Client
}

// NewMutationController wires the controller. The AMQP client may be nil.
func NewMutationController(store TransactionStore, events *amqp.Client) *MutationController {
	return &MutationController{store: store, events: events}
}

// Edit applies the requested field changes to the identified record
// (individual scope) or to its group (group scope).
//
// Individual edits never recompute the group: an amount edit on one
// installment is allowed to drift from the originally split total.
//
// Group scope supports two changes: a description change rewrites every
// member's base description, preserving the " (N/M)" suffix; an amount
// change on a recurring group applies to the edited position and every later
// one, leaving past occurrences untouched. Amount changes on installment
// groups, and any date or kind change at group scope, fail with
// ErrUnsupportedGroupEdit.
func (c *MutationController) Edit(ctx context.Context, requesterID, txID int64, changes Changes, scope Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if err := changes.Validate(); err != nil {
		return err
	}
	if changes.IsEmpty() {
		return nil
	}

	tx, err := c.lookupOwned(ctx, requesterID, txID)
	if err != nil {
		return err
	}

	if scope == ScopeIndividual || tx.GroupID == "" {
		// An ungrouped record is its own whole group.
		if err := c.store.UpdateByID(ctx, tx.ID, changes); err != nil {
			return fmt.Errorf("update transaction %d: %w", tx.ID, err)
		}
		c.publishEvent(ctx, amqp.ActionUpdated, tx.ID, tx.GroupID, tx.UserID)
		return nil
	}

	if changes.Date != nil || changes.Kind != nil {
		return fmt.Errorf("%w: only amount and description can change at group scope", core.ErrUnsupportedGroupEdit)
	}
	if changes.Amount != nil && tx.GroupKind == core.GroupInstallment {
		return fmt.Errorf("%w: installment amounts are fixed by the original split", core.ErrUnsupportedGroupEdit)
	}

	if changes.Amount != nil {
		updated, err := c.store.UpdateGroupAmounts(ctx, tx.GroupID, tx.Position, *changes.Amount)
		if err != nil {
			return fmt.Errorf("update group %s amounts: %w", tx.GroupID, err)
		}
		slog.InfoContext(ctx, "Group amounts updated",
			"group_id", tx.GroupID,
			"from_position", tx.Position,
			"updated", updated)
	}

	if changes.Description != nil {
		if err := c.updateGroupDescriptions(ctx, tx.GroupID, *changes.Description); err != nil {
			return err
		}
	}

	c.publishEvent(ctx, amqp.ActionUpdated, tx.ID, tx.GroupID, tx.UserID)
	return nil
}

// Delete removes the identified record, or its entire group in one atomic
// storage operation. It returns how many records were removed. Deleting the
// last member of a group individually simply orphans the group id.
func (c *MutationController) Delete(ctx context.Context, requesterID, txID int64, scope Scope) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	tx, err := c.lookupOwned(ctx, requesterID, txID)
	if err != nil {
		return 0, err
	}

	if scope == ScopeIndividual || tx.GroupID == "" {
		if err := c.store.DeleteByID(ctx, tx.ID); err != nil {
			return 0, fmt.Errorf("delete transaction %d: %w", tx.ID, err)
		}
		c.publishEvent(ctx, amqp.ActionDeleted, tx.ID, tx.GroupID, tx.UserID)
		return 1, nil
	}

	deleted, err := c.store.DeleteByGroupID(ctx, tx.GroupID)
	if err != nil {
		return 0, fmt.Errorf("delete group %s: %w", tx.GroupID, err)
	}
	slog.InfoContext(ctx, "Group deleted",
		"group_id", tx.GroupID,
		"deleted", deleted)
	c.publishEvent(ctx, amqp.ActionDeleted, tx.ID, tx.GroupID, tx.UserID)
	return deleted, nil
}

// lookupOwned resolves the record and enforces ownership.
func (c *MutationController) lookupOwned(ctx context.Context, requesterID, txID int64) (core.Transaction, error) {
	tx, err := c.store.GetByID(ctx, txID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("lookup transaction %d: %w", txID, err)
	}
	if tx.UserID != requesterID {
		return core.Transaction{}, core.ErrForbidden
	}
	return tx, nil
}

// updateGroupDescriptions rewrites the base description of every member,
// reconstructing each member's position suffix.
func (c *MutationController) updateGroupDescriptions(ctx context.Context, groupID, base string) error {
	members, err := c.store.GetByGroupID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("load group %s: %w", groupID, err)
	}

	base = strings.TrimSpace(base)
	descriptions := make(map[int64]string, len(members))
	for _, m := range members {
		descriptions[m.ID] = groupedDescription(base, m.Position, m.GroupSize)
	}
	if err := c.store.UpdateDescriptions(ctx, descriptions); err != nil {
		return fmt.Errorf("update group %s descriptions: %w", groupID, err)
	}
	return nil
}

func (c *MutationController) publishEvent(ctx context.Context, action string, txID int64, groupID string, userID int64) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishTransactionEvent(ctx, action, txID, groupID, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action,
			"transaction_id", txID,
			"error", err)
	}
}
