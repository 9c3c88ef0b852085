// Package sqlite provides a SQLite-backed implementation of the storage.Store
// interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"tally/internal/models"
	"tally/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateLedger persists a new ledger.
func (s *SQLiteStore) CreateLedger(ctx context.Context, ledger *models.Ledger) error {
	if ledger.ID == "" {
		ledger.ID = uuid.New().String()
	}
	if ledger.CreatedAt == 0 {
		ledger.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO ledgers (id, name, currency, created_at) VALUES (?, ?, ?, ?)",
		ledger.ID, ledger.Name, ledger.Currency, ledger.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger: %w", err)
	}
	return nil
}

// GetLedger retrieves a ledger by ID.
func (s *SQLiteStore) GetLedger(ctx context.Context, ledgerID string) (*models.Ledger, error) {
	ledger := &models.Ledger{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, created_at FROM ledgers WHERE id = ?",
		ledgerID,
	).Scan(&ledger.ID, &ledger.Name, &ledger.Currency, &ledger.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger %s: %w", ledgerID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return ledger, nil
}

// ListLedgers returns all ledgers ordered by creation time.
func (s *SQLiteStore) ListLedgers(ctx context.Context) ([]models.Ledger, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, currency, created_at FROM ledgers ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []models.Ledger
	for rows.Next() {
		var l models.Ledger
		if err := rows.Scan(&l.ID, &l.Name, &l.Currency, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger: %w", err)
		}
		ledgers = append(ledgers, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledgers: %w", err)
	}
	return ledgers, nil
}

// CreateMember persists a new member.
func (s *SQLiteStore) CreateMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO members (id, ledger_id, name, is_active) VALUES (?, ?, ?, ?)",
		member.ID, member.LedgerID, member.Name, boolToInt(member.IsActive),
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// UpdateMember updates a member's name and active flag.
func (s *SQLiteStore) UpdateMember(ctx context.Context, member *models.Member) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET name = ?, is_active = ? WHERE id = ?",
		member.Name, boolToInt(member.IsActive), member.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrNotFound)
	}
	return nil
}

// ListMembers returns all members of a ledger ordered by name.
func (s *SQLiteStore) ListMembers(ctx context.Context, ledgerID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, ledger_id, name, is_active FROM members WHERE ledger_id = ? ORDER BY name",
		ledgerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		var active int
		if err := rows.Scan(&m.ID, &m.LedgerID, &m.Name, &active); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.IsActive = active != 0
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// CreateTransaction persists a transaction with its contributions atomically.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions
		 (id, ledger_id, name, category, currency, expense_type, date, created_at, exchange_rate, is_deleted, is_template)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.LedgerID, txn.Name, txn.Category, txn.Currency, string(txn.Type),
		txn.Date, txn.CreatedAt, txn.ExchangeRate, boolToInt(txn.IsDeleted), boolToInt(txn.IsTemplate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := insertContributions(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateTransaction replaces a transaction and its contributions atomically.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET
		 name = ?, category = ?, currency = ?, expense_type = ?, date = ?,
		 exchange_rate = ?, is_deleted = ?, is_template = ?
		 WHERE id = ?`,
		txn.Name, txn.Category, txn.Currency, string(txn.Type), txn.Date,
		txn.ExchangeRate, boolToInt(txn.IsDeleted), boolToInt(txn.IsTemplate), txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM contributions WHERE transaction_id = ?", txn.ID,
	); err != nil {
		return fmt.Errorf("failed to clear contributions: %w", err)
	}
	if err := insertContributions(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction with its contributions.
func (s *SQLiteStore) GetTransaction(ctx context.Context, txnID string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var deleted, template int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, ledger_id, name, category, currency, expense_type, date, created_at, exchange_rate, is_deleted, is_template
		 FROM transactions WHERE id = ?`,
		txnID,
	).Scan(&txn.ID, &txn.LedgerID, &txn.Name, &txn.Category, &txn.Currency, (*string)(&txn.Type),
		&txn.Date, &txn.CreatedAt, &txn.ExchangeRate, &deleted, &template)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", txnID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	txn.IsDeleted = deleted != 0
	txn.IsTemplate = template != 0

	txn.Contributions = make(map[string]models.Contribution)
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, amount_cents, weight FROM contributions WHERE transaction_id = ?",
		txnID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var memberID string
		var c models.Contribution
		if err := rows.Scan(&memberID, &c.AmountCents, &c.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		txn.Contributions[memberID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return txn, nil
}

// ListTransactions returns all of a ledger's transactions with contributions.
func (s *SQLiteStore) ListTransactions(ctx context.Context, ledgerID string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ledger_id, name, category, currency, expense_type, date, created_at, exchange_rate, is_deleted, is_template
		 FROM transactions WHERE ledger_id = ? ORDER BY date, created_at, id`,
		ledgerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	index := make(map[string]int)
	for rows.Next() {
		var txn models.Transaction
		var deleted, template int
		if err := rows.Scan(&txn.ID, &txn.LedgerID, &txn.Name, &txn.Category, &txn.Currency, (*string)(&txn.Type),
			&txn.Date, &txn.CreatedAt, &txn.ExchangeRate, &deleted, &template); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.IsDeleted = deleted != 0
		txn.IsTemplate = template != 0
		txn.Contributions = make(map[string]models.Contribution)
		index[txn.ID] = len(txns)
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	crows, err := s.db.QueryContext(ctx,
		`SELECT c.transaction_id, c.member_id, c.amount_cents, c.weight
		 FROM contributions c
		 JOIN transactions t ON t.id = c.transaction_id
		 WHERE t.ledger_id = ?`,
		ledgerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var txnID, memberID string
		var c models.Contribution
		if err := crows.Scan(&txnID, &memberID, &c.AmountCents, &c.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		if i, ok := index[txnID]; ok {
			txns[i].Contributions[memberID] = c
		}
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return txns, nil
}

func insertContributions(ctx context.Context, tx *sql.Tx, txn *models.Transaction) error {
	for memberID, c := range txn.Contributions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO contributions (transaction_id, member_id, amount_cents, weight) VALUES (?, ?, ?, ?)",
			txn.ID, memberID, c.AmountCents, c.Weight,
		); err != nil {
			return fmt.Errorf("failed to insert contribution: %w", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
