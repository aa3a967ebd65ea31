package core

// AllocateInstallments splits a total amount into count installment amounts
// that sum back to the total exactly. The split works in integer cents: every
// slot gets the floored share, and the leftover cents go one apiece to the
// first slots in order.
//
// AllocateInstallments(Money{1000}, 3) -> [334, 333, 333] cents.
func AllocateInstallments(total Money, count int) ([]Money, error) {
	if total.Cents <= 0 {
		return nil, ErrInvalidAmount
	}
	if count < 1 {
		return nil, ErrInvalidCount
	}
	// A total smaller than the count would floor some slots to zero cents,
	// and every stored amount must stay strictly positive.
	if total.Cents < int64(count) {
		return nil, ErrInvalidAmount
	}

	base := total.Cents / int64(count)
	remainder := total.Cents % int64(count)

	amounts := make([]Money, count)
	for i := range amounts {
		cents := base
		if int64(i) < remainder {
			cents++
		}
		amounts[i] = Money{Cents: cents}
	}
	return amounts, nil
}

// AllocateRecurring returns count copies of the per-occurrence amount.
func AllocateRecurring(perOccurrence Money, count int) ([]Money, error) {
	if perOccurrence.Cents <= 0 {
		return nil, ErrInvalidAmount
	}
	if count < 1 {
		return nil, ErrInvalidCount
	}

	amounts := make([]Money, count)
	for i := range amounts {
		amounts[i] = perOccurrence
	}
	return amounts, nil
}
