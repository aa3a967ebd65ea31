package services_test

import (
	"context"
	"errors"
	"testing"

	"parcela/internal/core"
	"parcela/internal/services"
	"parcela/internal/storage/memory"
)

// seedGroup creates a grouped record set for user 1 and returns the stored
// records ordered by position.
func seedGroup(t *testing.T, store *memory.Store, intent services.Intent) []core.Transaction {
	t.Helper()
	records, err := services.NewGroupBuilder().Build(intent)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	stored, err := store.InsertBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}
	return stored
}

func recurringIntent(userID int64, cents int64, count int) services.Intent {
	return services.Intent{
		UserID:      userID,
		Kind:        core.Expense,
		Description: "Rent",
		StartDate:   core.NewDate(2026, 1, 1),
		Recurring:   &services.RecurringIntent{PerOccurrence: core.Money{Cents: cents}, Frequency: core.Monthly, Count: count},
	}
}

func installmentIntent(userID int64, totalCents int64, count int) services.Intent {
	return services.Intent{
		UserID:      userID,
		Kind:        core.Expense,
		Description: "Sofa",
		StartDate:   core.NewDate(2026, 1, 1),
		Installment: &services.InstallmentIntent{Total: core.Money{Cents: totalCents}, Count: count},
	}
}

func TestMutation_IndividualEditLeavesGroupUntouched(t *testing.T) {
	store := memory.NewStore()
	mc := services.NewMutationController(store, nil)
	ctx := context.Background()

	stored := seedGroup(t, store, recurringIntent(1, 5000, 4))

	newAmount := core.Money{Cents: 7500}
	err := mc.Edit(ctx, 1, stored[1].ID, services.Changes{Amount: &newAmount}, services.ScopeIndividual)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	members, err := store.GetByGroupID(ctx, stored[0].GroupID)
	if err != nil {
		t.Fatalf("GetByGroupID() error = %v", err)
	}
	for _, m := range members {
		want := int64(5000)
		if m.ID == stored[1].ID {
			want = 7500
		}
		if m.Amount.Cents != want {
			t.Errorf("position %d amount = %d, want %d", m.Position, m.Amount.Cents, want)
		}
	}
}

func TestMutation_GroupAmountEditAppliesFromPosition(t *testing.T) {
	store := memory.NewStore()
	mc := services.NewMutationController(store, nil)
	ctx := context.Background()

	stored := seedGroup(t, store, recurringIntent(1, 5000, 4))

	newAmount := core.Money{Cents: 6000}
	err := mc.Edit(ctx, 1, stored[1].ID, services.Changes{Amount: &newAmount}, services.ScopeGroup)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	members, err := store.GetByGroupID(ctx, stored[0].GroupID)
	if err != nil {
		t.Fatalf("GetByGroupID() error = %v", err)
	}
	for _, m := range members {
		want := int64(6000)
		if m.Position < 2 {
			want = 5000
		}
		if m.Amount.Cents != want {
			t.Errorf("position %d amount = %d, want %d", m.Position, m.Amount.Cents, want)
		}
	}
}

func TestMutation_GroupDescriptionEditRewritesSuffixes(t *testing.T) {
	store := memory.NewStore()
	mc := services.NewMutationController(store, nil)
	ctx := context.Background()

	stored := seedGroup(t, store, recurringIntent(1, 5000, 3))

	desc := "Apartment rent"
	err := mc.Edit(ctx, 1, stored[2].ID, services.Changes{Description: &desc}, services.ScopeGroup)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	members, err := store.GetByGroupID(ctx, stored[0].GroupID)
	if err != nil {
		t.Fatalf("GetByGroupID() error = %v", err)
	}
	want := []string{"Apartment rent (1/3)", "Apartment rent (2/3)", "Apartment rent (3/3)"}
	for i, m := range members {
		if m.Description != want[i] {
			t.Errorf("position %d description = %q, want %q", m.Position, m.Description, want[i])
		}
	}
}

func TestMutation_UnsupportedGroupEdits(t *testing.T) {
	store := memory.NewStore()
	mc := services.NewMutationController(store, nil)
	ctx := context.Background()

	installments := seedGroup(t, store, installmentIntent(1, 120000, 3))
	recurring := seedGroup(t, store, recurringIntent(1, 5000, 3))

	amount := core.Money{Cents: 9999}
	date := core.NewDate(2026, 6, 1)
	kind := core.Income

	tests := []struct {
		name    string
		txID    int64
		changes services.Changes
	}{
		{"installment group amount", installments[0].ID, services.Changes{Amount: &amount}},
		{"group date", recurring[0].ID, services.Changes{Date: &date}},
		{"group kind", recurring[0].ID, services.Changes{Kind: &kind}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mc.Edit(ctx, 1, tt.txID, tt.changes, services.ScopeGroup)
			if !errors.Is(err, core.ErrUnsupportedGroupEdit) {
				t.Errorf("Edit() error = %v, want ErrUnsupportedGroupEdit", err)
			}
		})
	}
}

func TestMutation_GroupScopeOnUngroupedRecord(t *testing.T) {
	store := memory.NewStore()
	mc := services.NewMutationController(store, nil)
	ctx := context.Background()

	stored := seedGroup(t, store, services.Intent{
		UserID:      1,
		Kind:        core.Expense,
		Description: "One-off",
		StartDate:   core.NewDate(2026, 2, 10),
		Simple:      &services.SimpleIntent{Amount: core.Money{Cents: 400}},
	})

	// An ungrouped record is its own whole group; a date edit at group scope
	// degrades to an individual edit instead of failing.
	date := core.NewDate(2026, 2, 20)
	if err := mc.Edit(ctx, 1, stored[0].ID, services.Changes{Date: &date}, services.ScopeGroup); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	got, err := store.GetByID(ctx, stored[0].ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Date.ISO() != "2026-02-20" {
		t.Errorf("date = %s, want 2026-02-20", got.Date.ISO())
	}
}

func TestMutation_DeleteIndividualKeepsRest(t *testing.T) {
	store := memory.NewStore()
	mc := services.NewMutationController(store, nil)
	ctx := context.Background()

	stored := seedGroup(t, store, installmentIntent(1, 120000, 4))

	deleted, err := mc.Delete(ctx, 1, stored[1].ID, services.ScopeIndividual)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Delete() removed %d records, want 1", deleted)
	}

	members, err := store.GetByGroupID(ctx, stored[0].GroupID)
	if err != nil {
		t.Fatalf("GetByGroupID() error = %v", err)
	}
	if len(members) != 3 {
		t.Errorf("group has %d members after individual delete, want 3", len(members))
	}
	if _, err := store.GetByID(ctx, stored[1].ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted record lookup error = %v, want ErrNotFound", err)
	}
}

func TestMutation_DeleteGroupRemovesAll(t *testing.T) {
	store := memory.NewStore()
	mc := services.NewMutationController(store, nil)
	ctx := context.Background()

	stored := seedGroup(t, store, installmentIntent(1, 120000, 4))

	deleted, err := mc.Delete(ctx, 1, stored[2].ID, services.ScopeGroup)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 4 {
		t.Errorf("Delete() removed %d records, want 4", deleted)
	}

	members, err := store.GetByGroupID(ctx, stored[0].GroupID)
	if err != nil {
		t.Fatalf("GetByGroupID() error = %v", err)
	}
	if len(members) != 0 {
		t.Errorf("group has %d members after group delete, want 0", len(members))
	}
}

func TestMutation_OwnershipAndLookupErrors(t *testing.T) {
	store := memory.NewStore()
	mc := services.NewMutationController(store, nil)
	ctx := context.Background()

	stored := seedGroup(t, store, recurringIntent(1, 5000, 2))
	amount := core.Money{Cents: 100}

	t.Run("foreign record", func(t *testing.T) {
		err := mc.Edit(ctx, 2, stored[0].ID, services.Changes{Amount: &amount}, services.ScopeIndividual)
		if !errors.Is(err, core.ErrForbidden) {
			t.Errorf("Edit() error = %v, want ErrForbidden", err)
		}
		if _, err := mc.Delete(ctx, 2, stored[0].ID, services.ScopeIndividual); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("Delete() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		err := mc.Edit(ctx, 1, 9999, services.Changes{Amount: &amount}, services.ScopeIndividual)
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Edit() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("invalid scope", func(t *testing.T) {
		err := mc.Edit(ctx, 1, stored[0].ID, services.Changes{Amount: &amount}, "everything")
		if !errors.Is(err, services.ErrInvalidScope) {
			t.Errorf("Edit() error = %v, want ErrInvalidScope", err)
		}
	})

	t.Run("empty changes are a no-op", func(t *testing.T) {
		if err := mc.Edit(ctx, 1, stored[0].ID, services.Changes{}, services.ScopeIndividual); err != nil {
			t.Errorf("Edit() error = %v, want nil", err)
		}
	})
}
