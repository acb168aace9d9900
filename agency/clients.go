/*
clients.go - Client directory

PURPOSE:
  Keeps the registered clients and their booking counters. Each registration
  opens a wallet in the Ledger; balances are read back from the Ledger and
  never stored here.

EDITS:
  Update changes name and contact fields only. A rename does NOT rewrite the
  client-name field of earlier bookings (bookings reference clients by name).

NAME LOOKUP:
  FindByName is an exact, case-sensitive match and returns the FIRST client
  registered under that name. Name collisions are therefore resolved by
  registration order.

SEE ALSO:
  - ledger.go: Wallet balances
  - lifecycle/coordinator.go: Increments booking counters
*/
package agency

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type clientRecord struct {
	id            ClientID
	name          string
	email         string
	phone         string
	address       string
	totalBookings int
}

type ClientDirectory struct {
	ledger *Ledger
	ids    *IDGenerator

	mu    sync.RWMutex
	order []ClientID
	byID  map[ClientID]*clientRecord
}

func NewClientDirectory(ledger *Ledger, ids *IDGenerator) *ClientDirectory {
	if ids == nil {
		ids = NewIDGenerator(nil)
	}
	return &ClientDirectory{
		ledger: ledger,
		ids:    ids,
		byID:   make(map[ClientID]*clientRecord),
	}
}

// Register adds a client and opens its wallet. Name and Email are required.
// A non-empty c.ID is kept (fixtures); TotalBookings seeds the counter;
// WalletBalance is ignored.
func (d *ClientDirectory) Register(ctx context.Context, c Client) (Client, error) {
	if err := validateContact(c); err != nil {
		return Client{}, err
	}
	if c.TotalBookings < 0 {
		return Client{}, &ValidationError{Field: "totalBookings", Message: "must not be negative"}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if c.ID == "" {
		c.ID = ClientID(d.ids.New(PrefixClient))
	}
	if _, exists := d.byID[c.ID]; exists {
		return Client{}, ErrDuplicateID
	}
	if err := d.ledger.Open(ctx, c.ID, c.Name); err != nil {
		return Client{}, fmt.Errorf("register client: %w", err)
	}

	rec := &clientRecord{
		id:            c.ID,
		name:          c.Name,
		email:         c.Email,
		phone:         c.Phone,
		address:       c.Address,
		totalBookings: c.TotalBookings,
	}
	d.byID[c.ID] = rec
	d.order = append(d.order, c.ID)
	return d.snapshot(rec), nil
}

// Update replaces name, email, phone and address. The booking counter and the
// wallet balance are untouched.
func (d *ClientDirectory) Update(_ context.Context, c Client) (Client, error) {
	if err := validateContact(c); err != nil {
		return Client{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.byID[c.ID]
	if !ok {
		return Client{}, unknownClient(c.ID)
	}
	rec.name = c.Name
	rec.email = c.Email
	rec.phone = c.Phone
	rec.address = c.Address
	if err := d.ledger.Rename(c.ID, c.Name); err != nil {
		return Client{}, err
	}
	return d.snapshot(rec), nil
}

func (d *ClientDirectory) Get(_ context.Context, id ClientID) (Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.byID[id]
	if !ok {
		return Client{}, unknownClient(id)
	}
	return d.snapshot(rec), nil
}

// List returns all clients in registration order.
func (d *ClientDirectory) List(_ context.Context) []Client {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Client, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.snapshot(d.byID[id]))
	}
	return out
}

// FindByName returns the first registered client named exactly name.
func (d *ClientDirectory) FindByName(_ context.Context, name string) (Client, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, id := range d.order {
		if rec := d.byID[id]; rec.name == name {
			return d.snapshot(rec), true
		}
	}
	return Client{}, false
}

// RecordBooking increments the booking counter of a client.
// Only the lifecycle coordinator calls this.
func (d *ClientDirectory) RecordBooking(_ context.Context, id ClientID) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.byID[id]
	if !ok {
		return 0, unknownClient(id)
	}
	rec.totalBookings++
	return rec.totalBookings, nil
}

// snapshot must be called with d.mu held.
func (d *ClientDirectory) snapshot(rec *clientRecord) Client {
	c := Client{
		ID:            rec.id,
		Name:          rec.name,
		Email:         rec.email,
		Phone:         rec.phone,
		Address:       rec.address,
		TotalBookings: rec.totalBookings,
	}
	// The wallet was opened at registration, so the lookup cannot miss.
	c.WalletBalance, _ = d.ledger.BalanceOf(rec.id)
	return c
}

func validateContact(c Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return Required("name")
	}
	if strings.TrimSpace(c.Email) == "" {
		return Required("email")
	}
	return nil
}
