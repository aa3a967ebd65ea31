package core

import (
	"errors"
	"testing"
)

func TestAllocateInstallments(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		count int
		want  []int64
	}{
		{"remainder to first slot", 1000, 3, []int64{334, 333, 333}},
		{"even split", 999, 3, []int64{333, 333, 333}},
		{"remainder spread over first two", 1001, 3, []int64{334, 334, 333}},
		{"two installments", 101, 2, []int64{51, 50}},
		{"single cent each", 5, 5, []int64{1, 1, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts, err := AllocateInstallments(Money{Cents: tt.total}, tt.count)
			if err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if len(amounts) != tt.count {
				t.Fatalf("expected %d amounts, got %d", tt.count, len(amounts))
			}
			for i, w := range tt.want {
				if amounts[i].Cents != w {
					t.Fatalf("slot %d expected %d, got %d", i, w, amounts[i].Cents)
				}
			}
		})
	}
}

func TestAllocateInstallmentsSumsExactly(t *testing.T) {
	totals := []int64{1, 99, 100, 1000, 33333, 1000001}
	counts := []int{1, 2, 3, 7, 12, 60}
	for _, total := range totals {
		for _, count := range counts {
			amounts, err := AllocateInstallments(Money{Cents: total}, count)
			if total < int64(count) {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("total %d count %d: expected ErrInvalidAmount, got %v", total, count, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("total %d count %d: %v", total, count, err)
			}
			var sum int64
			for _, a := range amounts {
				if a.Cents <= 0 {
					t.Fatalf("total %d count %d: non-positive installment %d", total, count, a.Cents)
				}
				sum += a.Cents
			}
			if sum != total {
				t.Fatalf("total %d count %d: installments sum to %d", total, count, sum)
			}
		}
	}
}

func TestAllocateRecurring(t *testing.T) {
	amounts, err := AllocateRecurring(Money{Cents: 2500}, 4)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(amounts) != 4 {
		t.Fatalf("expected 4 amounts, got %d", len(amounts))
	}
	for i, a := range amounts {
		if a.Cents != 2500 {
			t.Fatalf("occurrence %d expected 2500, got %d", i, a.Cents)
		}
	}
}

func TestAllocateErrors(t *testing.T) {
	if _, err := AllocateInstallments(Money{Cents: 0}, 3); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := AllocateInstallments(Money{Cents: -100}, 3); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := AllocateInstallments(Money{Cents: 100}, 0); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
	if _, err := AllocateInstallments(Money{Cents: 1}, 3); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for total below count, got %v", err)
	}
	if _, err := AllocateInstallments(Money{Cents: 2}, 3); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for total below count, got %v", err)
	}
	if _, err := AllocateRecurring(Money{Cents: 0}, 3); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := AllocateRecurring(Money{Cents: 100}, 0); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
}
