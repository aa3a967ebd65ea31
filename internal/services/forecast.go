package services

import (
	"context"
	"fmt"
	"log/slog"

	"parcela/internal/cache"
	"parcela/internal/core"
)

// forecastWindowMonths is the number of calendar months the moving average
// looks back over.
const forecastWindowMonths = 3

// Estimate holds the next-period projections, one per transaction kind.
type Estimate struct {
	Income  core.Money
	Expense core.Money
}

// ForecastEstimator derives simple moving-average projections from recent
// history. Results are cached with a short TTL; there is no invalidation
// protocol, a stale estimate simply ages out.
type ForecastEstimator struct {
	store TransactionStore
	cache cache.Cache[Estimate]
}

// NewForecastEstimator wires the estimator. The cache may be nil.
func NewForecastEstimator(store TransactionStore, c cache.Cache[Estimate]) *ForecastEstimator {
	return &ForecastEstimator{store: store, cache: c}
}

// Estimate averages per-month totals over the three calendar months strictly
// preceding asOf's month, separately for income and expense. A month with no
// transactions of a kind contributes zero to that kind's average. A kind with
// no transactions anywhere in the window estimates zero; only when both kinds
// are empty across the window does it fail with ErrInsufficientHistory.
func (e *ForecastEstimator) Estimate(ctx context.Context, userID int64, asOf core.Date) (Estimate, error) {
	if err := asOf.Validate(); err != nil {
		return Estimate{}, err
	}

	key := fmt.Sprintf("forecast:%d:%04d-%02d", userID, asOf.Year(), asOf.Month())
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cached, nil
		}
	}

	firstOfMonth := core.NewDate(asOf.Year(), asOf.Month(), 1)
	from := core.Date{Time: firstOfMonth.AddDate(0, -forecastWindowMonths, 0)}
	to := core.Date{Time: firstOfMonth.AddDate(0, 0, -1)}

	totals, err := e.store.MonthlyTotals(ctx, userID, from, to)
	if err != nil {
		return Estimate{}, fmt.Errorf("load monthly totals: %w", err)
	}
	if len(totals) == 0 {
		return Estimate{}, core.ErrInsufficientHistory
	}

	var incomeSum, expenseSum int64
	for _, t := range totals {
		switch t.Kind {
		case core.Income:
			incomeSum += t.Total.Cents
		case core.Expense:
			expenseSum += t.Total.Cents
		}
	}

	estimate := Estimate{
		Income:  core.Money{Cents: roundedDiv(incomeSum, forecastWindowMonths)},
		Expense: core.Money{Cents: roundedDiv(expenseSum, forecastWindowMonths)},
	}

	if e.cache != nil {
		e.cache.Set(key, estimate)
	}

	slog.DebugContext(ctx, "Forecast computed",
		"user_id", userID,
		"window_from", from.ISO(),
		"window_to", to.ISO(),
		"income_cents", estimate.Income.Cents,
		"expense_cents", estimate.Expense.Cents)

	return estimate, nil
}

// roundedDiv divides cents with half-up rounding.
func roundedDiv(cents, by int64) int64 {
	return (cents + by/2) / by
}
