package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"parcela/internal/core"
)

// Intent describes what the user asked to record. Exactly one of Simple,
// Installment or Recurring must be set.
type Intent struct {
	UserID      int64
	Kind        core.TransactionKind
	Description string
	StartDate   core.Date

	Simple      *SimpleIntent
	Installment *InstallmentIntent
	Recurring   *RecurringIntent
}

// SimpleIntent is a one-off transaction.
type SimpleIntent struct {
	Amount core.Money
}

// InstallmentIntent splits a total into monthly parts.
type InstallmentIntent struct {
	Total core.Money
	Count int
}

// RecurringIntent repeats a fixed amount on a schedule.
type RecurringIntent struct {
	PerOccurrence core.Money
	Frequency     core.Frequency
	Count         int
}

// GroupBuilder expands a user intent into the transaction records to persist.
// It produces the records only; persisting the batch (atomically) is the
// storage collaborator's job.
type GroupBuilder struct{}

func NewGroupBuilder() *GroupBuilder {
	return &GroupBuilder{}
}

// Build materializes the intent as an ordered record set. Grouped records
// share a freshly minted group id and carry position 1..count, the group
// size, and a " (N/M)" description suffix on the shared base description.
func (b *GroupBuilder) Build(intent Intent) ([]core.Transaction, error) {
	if err := intent.Kind.Validate(); err != nil {
		return nil, err
	}
	if err := intent.StartDate.Validate(); err != nil {
		return nil, err
	}

	variants := 0
	if intent.Simple != nil {
		variants++
	}
	if intent.Installment != nil {
		variants++
	}
	if intent.Recurring != nil {
		variants++
	}
	if variants != 1 {
		return nil, ErrAmbiguousIntent
	}

	switch {
	case intent.Simple != nil:
		return b.buildSimple(intent)
	case intent.Installment != nil:
		return b.buildInstallments(intent)
	default:
		return b.buildRecurring(intent)
	}
}

func (b *GroupBuilder) buildSimple(intent Intent) ([]core.Transaction, error) {
	if err := intent.Simple.Amount.Validate(); err != nil {
		return nil, err
	}
	tx := core.Transaction{
		UserID:      intent.UserID,
		Kind:        intent.Kind,
		Amount:      intent.Simple.Amount,
		Date:        intent.StartDate,
		Description: strings.TrimSpace(intent.Description),
	}
	return []core.Transaction{tx}, nil
}

func (b *GroupBuilder) buildInstallments(intent Intent) ([]core.Transaction, error) {
	count := intent.Installment.Count
	if count == 1 {
		// A single-installment group would be indistinguishable from a
		// simple transaction.
		return nil, core.ErrDegenerateGroup
	}

	amounts, err := core.AllocateInstallments(intent.Installment.Total, count)
	if err != nil {
		return nil, err
	}
	// Installments are always monthly.
	dates, err := core.Sequence(intent.StartDate, core.Monthly, count)
	if err != nil {
		return nil, err
	}

	groupID := uuid.NewString()
	base := strings.TrimSpace(intent.Description)
	records := make([]core.Transaction, count)
	for i := range records {
		records[i] = core.Transaction{
			UserID:      intent.UserID,
			Kind:        intent.Kind,
			Amount:      amounts[i],
			Date:        dates[i],
			Description: groupedDescription(base, i+1, count),
			GroupID:     groupID,
			GroupKind:   core.GroupInstallment,
			Position:    i + 1,
			GroupSize:   count,
		}
	}
	return records, nil
}

func (b *GroupBuilder) buildRecurring(intent Intent) ([]core.Transaction, error) {
	count := intent.Recurring.Count

	amounts, err := core.AllocateRecurring(intent.Recurring.PerOccurrence, count)
	if err != nil {
		return nil, err
	}
	dates, err := core.Sequence(intent.StartDate, intent.Recurring.Frequency, count)
	if err != nil {
		return nil, err
	}

	groupID := uuid.NewString()
	base := strings.TrimSpace(intent.Description)
	records := make([]core.Transaction, count)
	for i := range records {
		records[i] = core.Transaction{
			UserID:      intent.UserID,
			Kind:        intent.Kind,
			Amount:      amounts[i],
			Date:        dates[i],
			Description: groupedDescription(base, i+1, count),
			GroupID:     groupID,
			GroupKind:   core.GroupRecurring,
			Position:    i + 1,
			GroupSize:   count,
			Frequency:   intent.Recurring.Frequency,
		}
	}
	return records, nil
}

// groupedDescription stamps the position-in-group suffix onto the base
// description, e.g. "Rent (2/12)".
func groupedDescription(base string, position, size int) string {
	return fmt.Sprintf("%s (%d/%d)", base, position, size)
}
