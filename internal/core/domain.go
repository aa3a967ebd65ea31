package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	GroupNone        GroupKind = ""
	GroupInstallment GroupKind = "installment"
	GroupRecurring   GroupKind = "recurring"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	TransactionKind string

	GroupKind string

	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single persisted ledger record. Members of an
	// installment or recurring group share a GroupID and carry a 1-based
	// Position and the total GroupSize stamped at creation time.
	Transaction struct {
		ID          int64
		UserID      int64
		Kind        TransactionKind
		Amount      Money
		Date        Date
		Description string
		GroupID     string // empty for one-off transactions
		GroupKind   GroupKind
		Position    int
		GroupSize   int
		Frequency   Frequency // recurring groups only
		CreatedAt   time.Time
	}

	User struct {
		ID   int64
		Name string
	}
)

var (
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrInvalidCount         = errors.New("invalid count")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidKind          = errors.New("invalid transaction kind")
	ErrDegenerateGroup      = errors.New("single-installment group is not allowed")
	ErrUnsupportedGroupEdit = errors.New("unsupported group edit")
	ErrNotFound             = errors.New("transaction not found")
	ErrForbidden            = errors.New("transaction belongs to another user")
	ErrInsufficientHistory  = errors.New("no transactions in forecast window")
	ErrEmptyUsername        = errors.New("empty username")
	ErrEmptyPassword        = errors.New("empty password")
)

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, errors.New("invalid date, want YYYY-MM-DD")
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// ISO returns the date in YYYY-MM-DD form, the storage representation.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (k TransactionKind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.GroupID == "" {
		return nil
	}
	if t.GroupKind != GroupInstallment && t.GroupKind != GroupRecurring {
		return errors.New("grouped transaction without group kind")
	}
	if t.Position < 1 || t.GroupSize < 1 || t.Position > t.GroupSize {
		return errors.New("grouped transaction with inconsistent position")
	}
	return nil
}
