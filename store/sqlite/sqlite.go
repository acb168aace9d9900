/*
Package sqlite provides a SQLite-backed implementation of the transaction Store.

PURPOSE:
  Persists wallet transactions with database/sql and go-sqlite3. Clients and
  bookings stay in memory; on startup the Ledger replays whatever this store
  already holds for each client it opens.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the transactions table
  - No DELETE statements, except Reset for demo scenarios
  - Transaction ids are UNIQUE; a second insert maps to agency.ErrDuplicateID

ORDERING:
  Rows carry an autoincrement sequence number. Load and LoadAll order by it,
  which is the insertion order the Ledger relies on for timestamp ties.

IN-MEMORY DATABASES:
  ":memory:" gives every connection its own database, so the pool is capped
  at one connection. File databases are opened in WAL mode.

USAGE:
  store, err := sqlite.New("./data/agency.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := agency.NewLedger(store)

SEE ALSO:
  - agency/store.go: Interface definition
  - agency/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/agency-ledger/agency"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// Store implements agency.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dsn.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dsn == MemoryDSN {
		db.SetMaxOpenConns(1)
	}

	store, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an already opened handle and migrates the schema.
func NewWithDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func withPragmas(dsn string) string {
	if dsn == MemoryDSN {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_journal_mode=WAL&_busy_timeout=5000"
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	-- Wallet transactions (append-only ledger)
	CREATE TABLE IF NOT EXISTS transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		client_id TEXT NOT NULL,
		client_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		reference TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_client
		ON transactions(client_id, seq);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// agency.Store
// =============================================================================

// Append inserts a transaction.
func (s *Store) Append(ctx context.Context, tx agency.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO transactions
		(id, client_id, client_name, amount, tx_type, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		string(tx.ID),
		string(tx.ClientID),
		tx.ClientName,
		tx.Amount.String(),
		string(tx.Type),
		tx.Reference,
		tx.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return agency.ErrDuplicateID
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Load returns a client's transactions in insertion order.
func (s *Store) Load(ctx context.Context, clientID agency.ClientID) ([]agency.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, client_id, client_name, amount, tx_type, reference, created_at
		FROM transactions
		WHERE client_id = ?
		ORDER BY seq ASC
	`
	return s.queryTransactions(ctx, query, string(clientID))
}

// LoadAll returns every transaction in insertion order.
func (s *Store) LoadAll(ctx context.Context) ([]agency.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, client_id, client_name, amount, tx_type, reference, created_at
		FROM transactions
		ORDER BY seq ASC
	`
	return s.queryTransactions(ctx, query)
}

// Reset deletes every transaction. Demo scenarios only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("failed to reset transactions: %w", err)
	}
	return nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]agency.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []agency.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (agency.Transaction, error) {
	var (
		tx        agency.Transaction
		id        string
		clientID  string
		amount    string
		txType    string
		createdAt string
	)
	if err := rows.Scan(&id, &clientID, &tx.ClientName, &amount, &txType, &tx.Reference, &createdAt); err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return tx, fmt.Errorf("transaction %s: bad amount %q: %w", id, amount, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return tx, fmt.Errorf("transaction %s: bad timestamp %q: %w", id, createdAt, err)
	}

	tx.ID = agency.TransactionID(id)
	tx.ClientID = agency.ClientID(clientID)
	tx.Amount = value
	tx.Type = agency.TransactionType(txType)
	tx.Timestamp = ts
	return tx, nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var (
	_ agency.Store    = (*Store)(nil)
	_ agency.Resetter = (*Store)(nil)
)
