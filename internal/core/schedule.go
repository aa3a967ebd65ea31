package core

import "time"

// Sequence returns the ordered occurrence dates for a schedule: count dates,
// the first equal to start, each subsequent one period later.
//
// Occurrence i is derived from the start date plus i periods rather than from
// the previous occurrence, so a monthly schedule anchored on the 31st lands on
// the 31st again whenever the target month has one (Jan 31, Feb 28, Mar 31).
// Days past the end of the target month clamp to its last day; Feb 29 clamps
// to Feb 28 in non-leap years.
func Sequence(start Date, frequency Frequency, count int) ([]Date, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	if err := frequency.Validate(); err != nil {
		return nil, err
	}
	if err := start.Validate(); err != nil {
		return nil, err
	}

	dates := make([]Date, count)
	for i := range dates {
		dates[i] = occurrence(start, frequency, i)
	}
	return dates, nil
}

func occurrence(start Date, frequency Frequency, index int) Date {
	switch frequency {
	case Weekly:
		return Date{Time: start.AddDate(0, 0, 7*index)}
	case Monthly:
		return addMonthsClamped(start, index)
	case Yearly:
		return addYearsClamped(start, index)
	}
	return start
}

// addMonthsClamped advances by whole calendar months, clamping the day of
// month to the last valid day of the target month. time.AddDate is avoided
// here because it normalizes Jan 31 + 1 month to Mar 2/3 instead of Feb 28/29.
func addMonthsClamped(d Date, months int) Date {
	year := d.Year()
	monthIndex := d.Month() - 1 + months
	year += monthIndex / 12
	monthIndex %= 12

	day := d.Day()
	if last := lastDayOfMonth(year, monthIndex+1); day > last {
		day = last
	}
	return NewDate(year, monthIndex+1, day)
}

func addYearsClamped(d Date, years int) Date {
	year := d.Year() + years
	day := d.Day()
	if last := lastDayOfMonth(year, d.Month()); day > last {
		day = last
	}
	return NewDate(year, d.Month(), day)
}

// lastDayOfMonth returns the number of days in the given month, leap years
// included. Day zero of the following month is the last day of this one.
func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
