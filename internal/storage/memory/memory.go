// Package memory provides an in-memory storage backend. It is the default
// backend for local development and doubles as the test double for the
// service layer.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"parcela/internal/core"
	"parcela/internal/services"
)

type userRecord struct {
	user core.User
	hash []byte
}

// Store keeps every record in process memory, guarded by one mutex. The
// single-user request/response model needs no finer locking.
type Store struct {
	mu           sync.Mutex
	nextTxID     int64
	nextUserID   int64
	transactions map[int64]core.Transaction
	users        map[string]userRecord
}

func NewStore() *Store {
	return &Store{
		transactions: make(map[int64]core.Transaction),
		users:        make(map[string]userRecord),
	}
}

// InsertBatch assigns ids and stores the whole batch. Memory writes cannot
// fail halfway, so the batch is trivially atomic.
func (s *Store) InsertBatch(ctx context.Context, records []core.Transaction) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored := make([]core.Transaction, len(records))
	for i, r := range records {
		s.nextTxID++
		r.ID = s.nextTxID
		r.CreatedAt = now
		s.transactions[r.ID] = r
		stored[i] = r
	}
	return stored, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (s *Store) GetByGroupID(ctx context.Context, groupID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var members []core.Transaction
	for _, tx := range s.transactions {
		if tx.GroupID != "" && tx.GroupID == groupID {
			members = append(members, tx)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Position < members[j].Position })
	return members, nil
}

func (s *Store) UpdateByID(ctx context.Context, id int64, changes services.Changes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return core.ErrNotFound
	}
	if changes.Amount != nil {
		tx.Amount = *changes.Amount
	}
	if changes.Date != nil {
		tx.Date = *changes.Date
	}
	if changes.Description != nil {
		tx.Description = *changes.Description
	}
	if changes.Kind != nil {
		tx.Kind = *changes.Kind
	}
	s.transactions[id] = tx
	return nil
}

func (s *Store) UpdateGroupAmounts(ctx context.Context, groupID string, fromPosition int, amount core.Money) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for id, tx := range s.transactions {
		if tx.GroupID == groupID && tx.Position >= fromPosition {
			tx.Amount = amount
			s.transactions[id] = tx
			updated++
		}
	}
	return updated, nil
}

func (s *Store) UpdateDescriptions(ctx context.Context, descriptions map[int64]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Verify first so the multi-row update stays all-or-nothing.
	for id := range descriptions {
		if _, ok := s.transactions[id]; !ok {
			return core.ErrNotFound
		}
	}
	for id, desc := range descriptions {
		tx := s.transactions[id]
		tx.Description = desc
		s.transactions[id] = tx
	}
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) DeleteByGroupID(ctx context.Context, groupID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, tx := range s.transactions {
		if tx.GroupID == groupID {
			delete(s.transactions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64, filters services.Filters) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []core.Transaction
	search := strings.ToLower(strings.TrimSpace(filters.Search))
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		if filters.Kind != "" && tx.Kind != filters.Kind {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(tx.Description), search) {
			continue
		}
		records = append(records, tx)
	}

	asc := strings.EqualFold(filters.Order, "asc")
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !asc {
			a, b = b, a
		}
		switch filters.SortBy {
		case "amount":
			if a.Amount.Cents != b.Amount.Cents {
				return a.Amount.Cents < b.Amount.Cents
			}
		case "description":
			if a.Description != b.Description {
				return a.Description < b.Description
			}
		default: // date
			if !a.Date.Equal(b.Date.Time) {
				return a.Date.Before(b.Date)
			}
		}
		return a.ID < b.ID
	})
	return records, nil
}

func (s *Store) MonthlyTotals(ctx context.Context, userID int64, from, to core.Date) ([]services.MonthlyTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type bucket struct {
		year  int
		month int
		kind  core.TransactionKind
	}
	sums := make(map[bucket]int64)
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		if tx.Date.Before(from) || to.Before(tx.Date) {
			continue
		}
		b := bucket{year: tx.Date.Year(), month: tx.Date.Month(), kind: tx.Kind}
		sums[b] += tx.Amount.Cents
	}

	totals := make([]services.MonthlyTotal, 0, len(sums))
	for b, cents := range sums {
		totals = append(totals, services.MonthlyTotal{
			Year:  b.year,
			Month: b.month,
			Kind:  b.kind,
			Total: core.Money{Cents: cents},
		})
	}
	sort.Slice(totals, func(i, j int) bool {
		a, b := totals[i], totals[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Kind < b.Kind
	})
	return totals, nil
}

func (s *Store) CreateUser(ctx context.Context, name string, passwordHash []byte) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[name]; exists {
		return core.User{}, services.ErrUsernameTaken
	}
	s.nextUserID++
	user := core.User{ID: s.nextUserID, Name: name}
	s.users[name] = userRecord{user: user, hash: append([]byte(nil), passwordHash...)}
	return user, nil
}

func (s *Store) GetUserByName(ctx context.Context, name string) (core.User, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[name]
	if !ok {
		return core.User{}, nil, core.ErrNotFound
	}
	return rec.user, rec.hash, nil
}
