/*
ledger.go - Wallet ledger with derived client balances

PURPOSE:
  The Ledger is the sole writer of wallet balances. Every balance change is a
  Credit or Debit transaction appended to the Store; the stored balance is
  updated in the same step and must always equal the replay of the client's
  transactions.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: transactions are never edited or removed
  2. DERIVED: balanceOf(c) == sum(+amount for Credit, -amount for Debit)
  3. NO PARTIAL WRITES: a rejected credit/debit appends nothing and leaves
     the balance untouched
  4. SERIALIZED PER CLIENT: credit/debit for one client never interleave

OVERDRAFT:
  Debits are recorded unconditionally. A wallet may go negative; there is no
  reservation or hold step. This is an accounting ledger, not an e-wallet
  with hard limits.

EXAMPLE FLOW:
  1. Agent deposits 1000: Credit +1000 "Manual Deposit"      balance 1000
  2. Booking B1 settles 450: Debit -450 "Booking B1"         balance 550
  3. Booking B2 settles 800: Debit -800 "Booking B2"         balance -250

SEE ALSO:
  - store.go: Persistence interface
  - clients.go: Opens a wallet when a client registers
  - lifecycle/coordinator.go: Settlement debits and manual deposits
*/
package agency

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	store Store
	clock Clock
	ids   *IDGenerator

	mu      sync.RWMutex
	wallets map[ClientID]*wallet
}

type wallet struct {
	mu      sync.Mutex
	name    string
	balance decimal.Decimal
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLedgerClock sets the clock used for transaction timestamps.
func WithLedgerClock(clock Clock) LedgerOption {
	return func(l *Ledger) { l.clock = clock }
}

// WithLedgerIDs sets the generator used for transaction ids.
func WithLedgerIDs(ids *IDGenerator) LedgerOption {
	return func(l *Ledger) { l.ids = ids }
}

func NewLedger(store Store, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:   store,
		clock:   time.Now,
		wallets: make(map[ClientID]*wallet),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.ids == nil {
		l.ids = NewIDGenerator(l.clock)
	}
	return l
}

// Open registers the wallet of a client. The starting balance is the replay
// of whatever the store already holds for that client (zero for a new one).
func (l *Ledger) Open(ctx context.Context, clientID ClientID, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.wallets[clientID]; ok {
		return fmt.Errorf("open wallet %s: %w", clientID, ErrDuplicateID)
	}
	txs, err := l.store.Load(ctx, clientID)
	if err != nil {
		return fmt.Errorf("open wallet %s: %w", clientID, err)
	}
	l.wallets[clientID] = &wallet{name: name, balance: Replay(txs)}
	return nil
}

// Rename changes the name denormalized onto FUTURE transactions of a client.
// Recorded transactions keep the name they were written with.
func (l *Ledger) Rename(clientID ClientID, name string) error {
	w, err := l.wallet(clientID)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.name = name
	w.mu.Unlock()
	return nil
}

// Credit appends a Credit transaction and raises the balance by amount.
func (l *Ledger) Credit(ctx context.Context, clientID ClientID, amount decimal.Decimal, reference string) (TransactionID, error) {
	return l.post(ctx, clientID, amount, TxCredit, reference)
}

// Debit appends a Debit transaction and lowers the balance by amount.
// Overdraft is permitted.
func (l *Ledger) Debit(ctx context.Context, clientID ClientID, amount decimal.Decimal, reference string) (TransactionID, error) {
	return l.post(ctx, clientID, amount, TxDebit, reference)
}

func (l *Ledger) post(ctx context.Context, clientID ClientID, amount decimal.Decimal, typ TransactionType, reference string) (TransactionID, error) {
	if err := ValidateAmount(amount); err != nil {
		return "", fmt.Errorf("%s %s: %w", typ, clientID, err)
	}
	w, err := l.wallet(clientID)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", typ, clientID, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	tx := Transaction{
		ID:         TransactionID(l.ids.New(PrefixTransaction)),
		ClientID:   clientID,
		ClientName: w.name,
		Amount:     amount,
		Type:       typ,
		Reference:  reference,
		Timestamp:  l.clock().UTC(),
	}
	if err := l.store.Append(ctx, tx); err != nil {
		return "", fmt.Errorf("%s %s: %w", typ, clientID, err)
	}
	w.balance = w.balance.Add(tx.Signed())
	return tx.ID, nil
}

// BalanceOf returns the stored balance of a client.
func (l *Ledger) BalanceOf(clientID ClientID) (decimal.Decimal, error) {
	w, err := l.wallet(clientID)
	if err != nil {
		return decimal.Zero, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance, nil
}

// TransactionsOf returns a client's transactions, most recent first.
// Equal timestamps keep reverse insertion order.
func (l *Ledger) TransactionsOf(ctx context.Context, clientID ClientID) ([]Transaction, error) {
	if _, err := l.wallet(clientID); err != nil {
		return nil, err
	}
	txs, err := l.store.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load transactions %s: %w", clientID, err)
	}
	return MostRecentFirst(txs), nil
}

// Transactions returns every transaction in the ledger, most recent first.
func (l *Ledger) Transactions(ctx context.Context) ([]Transaction, error) {
	txs, err := l.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return MostRecentFirst(txs), nil
}

// Replay recomputes a client's balance from its transactions.
func (l *Ledger) Replay(ctx context.Context, clientID ClientID) (decimal.Decimal, error) {
	if _, err := l.wallet(clientID); err != nil {
		return decimal.Zero, err
	}
	txs, err := l.store.Load(ctx, clientID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("replay %s: %w", clientID, err)
	}
	return Replay(txs), nil
}

// =============================================================================
// AUDIT
// =============================================================================

// Discrepancy reports a wallet whose stored balance differs from its replay.
type Discrepancy struct {
	ClientID ClientID
	Stored   decimal.Decimal
	Replayed decimal.Decimal
}

// Verify replays every open wallet and returns the ones that diverge, ordered
// by client id. An empty result means the ledger is consistent.
func (l *Ledger) Verify(ctx context.Context) ([]Discrepancy, error) {
	l.mu.RLock()
	ids := make([]ClientID, 0, len(l.wallets))
	for id := range l.wallets {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []Discrepancy
	for _, id := range ids {
		w, err := l.wallet(id)
		if err != nil {
			return nil, err
		}
		// Hold the wallet so no credit/debit lands between read and replay.
		w.mu.Lock()
		txs, err := l.store.Load(ctx, id)
		stored := w.balance
		w.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", id, err)
		}
		if replayed := Replay(txs); !replayed.Equal(stored) {
			out = append(out, Discrepancy{ClientID: id, Stored: stored, Replayed: replayed})
		}
	}
	return out, nil
}

func (l *Ledger) wallet(clientID ClientID) (*wallet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, ok := l.wallets[clientID]
	if !ok {
		return nil, unknownClient(clientID)
	}
	return w, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// ValidateAmount accepts strictly positive amounts only.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// AmountFromFloat converts a caller-supplied float, rejecting NaN and ±Inf
// (decimal.NewFromFloat panics on them) as well as non-positive values.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidAmount
	}
	d := decimal.NewFromFloat(f)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// MostRecentFirst orders transactions newest first. The input must be in
// insertion order; ties on timestamp put the later insertion first.
func MostRecentFirst(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[len(txs)-1-i] = tx
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
