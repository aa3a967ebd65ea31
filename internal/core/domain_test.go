package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-31")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2025 || d.Month() != 1 || d.Day() != 31 {
		t.Fatalf("parsed wrong date: %v", d)
	}
	if d.ISO() != "2025-01-31" {
		t.Fatalf("round trip mismatch: %s", d.ISO())
	}
	for _, bad := range []string{"", "31/01/2025", "2025-13-01", "yesterday"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -50}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID: 1,
		Kind:   Expense,
		Amount: Money{Cents: 100},
		Date:   NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	grouped := good
	grouped.GroupID = "g"
	grouped.GroupKind = GroupInstallment
	grouped.Position = 2
	grouped.GroupSize = 3
	if err := grouped.Validate(); err != nil {
		t.Fatalf("expected ok for grouped, got %v", err)
	}

	bads := []Transaction{
		{Kind: "transfer", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},
		{Kind: Income, Amount: Money{Cents: 0}, Date: NewDate(2025, 1, 1)},
		{Kind: Income, Amount: Money{Cents: 1}},
		{Kind: Income, Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1), GroupID: "g"},                                              // no group kind
		{Kind: Income, Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1), GroupID: "g", GroupKind: GroupRecurring, Position: 4, GroupSize: 3}, // position past size
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
