package core

import (
	"errors"
	"testing"
)

func TestSequenceWeekly(t *testing.T) {
	dates, err := Sequence(NewDate(2024, 1, 1), Weekly, 4)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	want := []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}
	for i, w := range want {
		if dates[i].ISO() != w {
			t.Fatalf("occurrence %d expected %s, got %s", i, w, dates[i].ISO())
		}
	}
}

func TestSequenceMonthlyClamping(t *testing.T) {
	tests := []struct {
		name  string
		start Date
		count int
		want  []string
	}{
		{
			name:  "jan 31 clamps to feb 29 in leap year",
			start: NewDate(2024, 1, 31),
			count: 3,
			want:  []string{"2024-01-31", "2024-02-29", "2024-03-31"},
		},
		{
			name:  "jan 31 clamps to feb 28 in non-leap year",
			start: NewDate(2025, 1, 31),
			count: 3,
			want:  []string{"2025-01-31", "2025-02-28", "2025-03-31"},
		},
		{
			name:  "day 30 clamps in february only",
			start: NewDate(2025, 1, 30),
			count: 4,
			want:  []string{"2025-01-30", "2025-02-28", "2025-03-30", "2025-04-30"},
		},
		{
			name:  "year rollover",
			start: NewDate(2024, 11, 15),
			count: 3,
			want:  []string{"2024-11-15", "2024-12-15", "2025-01-15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates, err := Sequence(tt.start, Monthly, tt.count)
			if err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if len(dates) != tt.count {
				t.Fatalf("expected %d dates, got %d", tt.count, len(dates))
			}
			for i, w := range tt.want {
				if dates[i].ISO() != w {
					t.Fatalf("occurrence %d expected %s, got %s", i, w, dates[i].ISO())
				}
			}
		})
	}
}

func TestSequenceYearlyLeapClamp(t *testing.T) {
	dates, err := Sequence(NewDate(2024, 2, 29), Yearly, 5)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	want := []string{"2024-02-29", "2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"}
	for i, w := range want {
		if dates[i].ISO() != w {
			t.Fatalf("occurrence %d expected %s, got %s", i, w, dates[i].ISO())
		}
	}
}

func TestSequenceProperties(t *testing.T) {
	starts := []Date{
		NewDate(2024, 1, 31),
		NewDate(2024, 2, 29),
		NewDate(2025, 6, 15),
		NewDate(2025, 12, 1),
	}
	for _, freq := range []Frequency{Weekly, Monthly, Yearly} {
		for _, start := range starts {
			for _, count := range []int{1, 2, 7, 24} {
				dates, err := Sequence(start, freq, count)
				if err != nil {
					t.Fatalf("%s from %s count %d: %v", freq, start.ISO(), count, err)
				}
				if len(dates) != count {
					t.Fatalf("%s from %s: expected %d dates, got %d", freq, start.ISO(), count, len(dates))
				}
				if !dates[0].Equal(start.Time) {
					t.Fatalf("%s from %s: first occurrence is %s", freq, start.ISO(), dates[0].ISO())
				}
				for i := 1; i < len(dates); i++ {
					if !dates[i-1].Before(dates[i]) {
						t.Fatalf("%s from %s: not strictly increasing at %d (%s >= %s)",
							freq, start.ISO(), i, dates[i-1].ISO(), dates[i].ISO())
					}
				}
			}
		}
	}
}

func TestSequenceErrors(t *testing.T) {
	if _, err := Sequence(NewDate(2025, 1, 1), "daily", 3); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	if _, err := Sequence(NewDate(2025, 1, 1), Monthly, 0); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
	if _, err := Sequence(NewDate(2025, 1, 1), Monthly, -2); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
	if _, err := Sequence(Date{}, Monthly, 1); err == nil {
		t.Fatalf("expected error for zero start date")
	}
}
