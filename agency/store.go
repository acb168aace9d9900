/*
store.go - Persistence interface for wallet transactions

PURPOSE:
  Defines the boundary between the Ledger and wherever transactions are kept.
  The Store is APPEND-ONLY: there is no Update and no Delete.

IMPLEMENTATIONS:
  - agency/store/memory.go: In-memory (default)
  - store/sqlite/sqlite.go: database/sql + go-sqlite3

ORDERING CONTRACT:
  Load returns a client's transactions in insertion order. The Ledger relies on
  this to break timestamp ties (most recent insertion first).

SEE ALSO:
  - ledger.go: The only caller of Append
*/
package agency

import "context"

// Store persists wallet transactions.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// Append persists a transaction. Fails with ErrDuplicateID if the id exists.
	Append(ctx context.Context, tx Transaction) error

	// Load returns all transactions of a client in insertion order.
	Load(ctx context.Context, clientID ClientID) ([]Transaction, error)

	// LoadAll returns every transaction in insertion order.
	LoadAll(ctx context.Context) ([]Transaction, error)
}

// Resetter is implemented by stores that can be wiped for demo scenarios.
type Resetter interface {
	Reset(ctx context.Context) error
}
