// Package storage implements the SQLite storage collaborator.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"parcela/internal/core"
	"parcela/internal/services"

	_ "modernc.org/sqlite"
)

const transactionColumns = `id, user_id, kind, amount_cents, date, description,
	group_id, group_kind, position, group_size, frequency, created_at`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertBatch writes the whole record set in one SQL transaction, so a
// partially written group can never be observed.
func (r *SQLiteRepository) InsertBatch(ctx context.Context, records []core.Transaction) ([]core.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	now := time.Now()
	stored := make([]core.Transaction, len(records))
	for i, rec := range records {
		res, err := dbTx.ExecContext(ctx, `
			INSERT INTO transactions
				(user_id, kind, amount_cents, date, description,
				 group_id, group_kind, position, group_size, frequency, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.UserID, string(rec.Kind), rec.Amount.Cents, rec.Date.ISO(), rec.Description,
			nullString(rec.GroupID), nullString(string(rec.GroupKind)),
			nullInt(rec.Position), nullInt(rec.GroupSize),
			nullString(string(rec.Frequency)), now)
		if err != nil {
			return nil, fmt.Errorf("insert transaction %d of %d: %w", i+1, len(records), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		rec.ID = id
		rec.CreatedAt = now
		stored[i] = rec
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	if len(stored) > 0 {
		slog.InfoContext(ctx, "Transaction batch saved",
			"count", len(stored),
			"group_id", stored[0].GroupID)
	}
	return stored, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) GetByGroupID(ctx context.Context, groupID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE group_id = ? ORDER BY position`, groupID)
	if err != nil {
		return nil, fmt.Errorf("get transactions by group: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) UpdateByID(ctx context.Context, id int64, changes services.Changes) error {
	var (
		sets []string
		args []any
	)
	if changes.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, changes.Amount.Cents)
	}
	if changes.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, changes.Date.ISO())
	}
	if changes.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *changes.Description)
	}
	if changes.Kind != nil {
		sets = append(sets, "kind = ?")
		args = append(args, string(*changes.Kind))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpdateGroupAmounts(ctx context.Context, groupID string, fromPosition int, amount core.Money) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount_cents = ? WHERE group_id = ? AND position >= ?`,
		amount.Cents, groupID, fromPosition)
	if err != nil {
		return 0, fmt.Errorf("update group amounts: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return updated, nil
}

// UpdateDescriptions rewrites per-record descriptions inside one SQL
// transaction.
func (r *SQLiteRepository) UpdateDescriptions(ctx context.Context, descriptions map[int64]string) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	for id, desc := range descriptions {
		res, err := dbTx.ExecContext(ctx,
			`UPDATE transactions SET description = ? WHERE id = ?`, desc, id)
		if err != nil {
			return fmt.Errorf("update description %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return core.ErrNotFound
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit descriptions: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteByGroupID(ctx context.Context, groupID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE group_id = ?`, groupID)
	if err != nil {
		return 0, fmt.Errorf("delete group: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID int64, filters services.Filters) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if s := strings.TrimSpace(filters.Search); s != "" {
		query += ` AND description LIKE ?`
		args = append(args, "%"+s+"%")
	}
	if filters.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filters.Kind))
	}

	// Sort column and order come from a closed set, never from user input.
	sortBy := "date"
	switch filters.SortBy {
	case "amount":
		sortBy = "amount_cents"
	case "description":
		sortBy = "description"
	}
	order := "DESC"
	if strings.EqualFold(filters.Order, "asc") {
		order = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id %s", sortBy, order, order)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) MonthlyTotals(ctx context.Context, userID int64, from, to core.Date) ([]services.MonthlyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(substr(date, 1, 4) AS INTEGER) AS year,
		       CAST(substr(date, 6, 2) AS INTEGER) AS month,
		       kind,
		       SUM(amount_cents)
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date <= ?
		GROUP BY year, month, kind
		ORDER BY year, month, kind`,
		userID, from.ISO(), to.ISO())
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	defer rows.Close()

	var totals []services.MonthlyTotal
	for rows.Next() {
		var (
			t    services.MonthlyTotal
			kind string
		)
		var cents int64
		if err := rows.Scan(&t.Year, &t.Month, &kind, &cents); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		t.Kind = core.TransactionKind(kind)
		t.Total = core.Money{Cents: cents}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly totals: %w", err)
	}
	return totals, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, name string, passwordHash []byte) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, password_hash) VALUES (?, ?)`, name, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, services.ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("last insert id: %w", err)
	}
	return core.User{ID: id, Name: name}, nil
}

func (r *SQLiteRepository) GetUserByName(ctx context.Context, name string) (core.User, []byte, error) {
	var (
		user core.User
		hash []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, password_hash FROM users WHERE name = ?`, name).
		Scan(&user.ID, &user.Name, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, nil, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, nil, fmt.Errorf("get user by name: %w", err)
	}
	return user, hash, nil
}

// RecordEvent appends a mutation event to the audit log. Consumed by the
// worker binary, not by the request path.
func (r *SQLiteRepository) RecordEvent(ctx context.Context, action string, txID int64, groupID string, userID int64, occurredAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transaction_events (action, transaction_id, group_id, user_id, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		action, txID, nullString(groupID), userID, occurredAt)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		kind      string
		dateStr   string
		groupID   sql.NullString
		groupKind sql.NullString
		position  sql.NullInt64
		groupSize sql.NullInt64
		frequency sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.UserID, &kind, &tx.Amount.Cents, &dateStr, &tx.Description,
		&groupID, &groupKind, &position, &groupSize, &frequency, &tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}

	tx.Kind = core.TransactionKind(kind)
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	tx.Date = date
	tx.GroupID = groupID.String
	tx.GroupKind = core.GroupKind(groupKind.String)
	tx.Position = int(position.Int64)
	tx.GroupSize = int(groupSize.Int64)
	tx.Frequency = core.Frequency(frequency.String)
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var records []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		records = append(records, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}
