// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/agency-ledger/agency"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (default backend, tests)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	all      []agency.Transaction
	byClient map[agency.ClientID][]agency.Transaction
	ids      map[agency.TransactionID]bool
}

func NewMemory() *Memory {
	return &Memory{
		byClient: make(map[agency.ClientID][]agency.Transaction),
		ids:      make(map[agency.TransactionID]bool),
	}
}

// Append adds a single transaction. Append-only.
func (m *Memory) Append(_ context.Context, tx agency.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ids[tx.ID] {
		return agency.ErrDuplicateID
	}
	m.ids[tx.ID] = true
	m.all = append(m.all, tx)
	m.byClient[tx.ClientID] = append(m.byClient[tx.ClientID], tx)
	return nil
}

func (m *Memory) Load(_ context.Context, clientID agency.ClientID) ([]agency.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]agency.Transaction, len(m.byClient[clientID]))
	copy(result, m.byClient[clientID])
	return result, nil
}

func (m *Memory) LoadAll(_ context.Context) ([]agency.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]agency.Transaction, len(m.all))
	copy(result, m.all)
	return result, nil
}

// Reset drops every transaction (demo scenarios only).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.all = nil
	m.byClient = make(map[agency.ClientID][]agency.Transaction)
	m.ids = make(map[agency.TransactionID]bool)
	return nil
}

var (
	_ agency.Store    = (*Memory)(nil)
	_ agency.Resetter = (*Memory)(nil)
)
