// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"errors"

	"parcela/internal/core"
)

// Scope selects whether a mutation targets one record or every record in
// its group.
type Scope string

const (
	ScopeIndividual Scope = "individual"
	ScopeGroup      Scope = "group"
)

var (
	ErrInvalidScope       = errors.New("invalid scope")
	ErrAmbiguousIntent    = errors.New("intent must set exactly one of simple, installment, recurring")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
)

func (s Scope) Validate() error {
	switch s {
	case ScopeIndividual, ScopeGroup:
		return nil
	default:
		return ErrInvalidScope
	}
}

// Changes is a partial update to a transaction. Nil fields are left untouched.
type Changes struct {
	Amount      *core.Money
	Date        *core.Date
	Description *string
	Kind        *core.TransactionKind
}

// IsEmpty reports whether no field change was requested.
func (c Changes) IsEmpty() bool {
	return c.Amount == nil && c.Date == nil && c.Description == nil && c.Kind == nil
}

// Validate checks every requested field change.
func (c Changes) Validate() error {
	if c.Amount != nil {
		if err := c.Amount.Validate(); err != nil {
			return err
		}
	}
	if c.Date != nil {
		if err := c.Date.Validate(); err != nil {
			return err
		}
	}
	if c.Kind != nil {
		if err := c.Kind.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Filters narrows and orders a per-user transaction listing.
type Filters struct {
	Search string               // substring match on description
	Kind   core.TransactionKind // empty matches both kinds
	SortBy string               // date, amount or description; date when empty
	Order  string               // asc or desc; desc when empty
}

// MonthlyTotal is the summed amount of one kind in one calendar month.
type MonthlyTotal struct {
	Year  int
	Month int
	Kind  core.TransactionKind
	Total core.Money
}

// TransactionStore is the storage collaborator for transaction records.
// InsertBatch, DeleteByGroupID and UpdateDescriptions are atomic: either
// every row is applied or none is.
type TransactionStore interface {
	InsertBatch(ctx context.Context, records []core.Transaction) ([]core.Transaction, error)
	GetByID(ctx context.Context, id int64) (core.Transaction, error)
	GetByGroupID(ctx context.Context, groupID string) ([]core.Transaction, error)
	UpdateByID(ctx context.Context, id int64, changes Changes) error
	UpdateGroupAmounts(ctx context.Context, groupID string, fromPosition int, amount core.Money) (int64, error)
	UpdateDescriptions(ctx context.Context, descriptions map[int64]string) error
	DeleteByID(ctx context.Context, id int64) error
	DeleteByGroupID(ctx context.Context, groupID string) (int64, error)
	ListByUser(ctx context.Context, userID int64, filters Filters) ([]core.Transaction, error)
	MonthlyTotals(ctx context.Context, userID int64, from, to core.Date) ([]MonthlyTotal, error)
}

// UserStore is the storage collaborator for user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, name string, passwordHash []byte) (core.User, error)
	GetUserByName(ctx context.Context, name string) (core.User, []byte, error)
}
