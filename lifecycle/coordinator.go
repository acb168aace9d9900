/*
Package lifecycle sequences booking creation with wallet settlement.

PURPOSE:
  The Coordinator is the only component allowed to write across the Booking
  Store, the client directory and the Ledger in one operation. Forms submit
  validated intents (intents.go); the Coordinator applies them.

SETTLEMENT (CreateBooking):
  1. Parse the price: strip everything but digits, '.', '-'; garbage -> 0
  2. Create the booking with status Pending
  3. Resolve the client by exact, case-sensitive name
     - found, amount > 0  -> Debit(amount, "Booking <id>"), then count +1
     - found, amount <= 0 -> count +1, no ledger entry
     - not found          -> soft miss, nothing else happens
  Booking creation never fails because of client lookup or ledger trouble:
  once the booking is stored, settlement problems are logged, not returned.

NO REFUNDS:
  Cancelling a booking does not credit the wallet back. Refund workflows are
  out of scope.

VALIDATION:
  All intent validation happens here, before any store is touched. A failed
  validation mutates nothing.

SEE ALSO:
  - intents.go: Intent objects
  - price.go: Price parsing
  - agency/ledger.go: Credit / Debit
*/
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/agency-ledger/agency"
	"go.uber.org/zap"
)

// =============================================================================
// COORDINATOR
// =============================================================================

type Coordinator struct {
	Clients  *agency.ClientDirectory
	Bookings *agency.BookingStore
	Ledger   *agency.Ledger

	clock agency.Clock
	log   *zap.Logger

	// Serializes multi-store operations so a settlement is observed whole.
	mu sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock pins the clock used for booking dates and transaction timestamps.
func WithClock(clock agency.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// New wires a Coordinator over the given transaction store. Clients,
// bookings and transactions share one id generator.
func New(store agency.Store, opts ...Option) *Coordinator {
	c := &Coordinator{clock: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	ids := agency.NewIDGenerator(c.clock)
	c.Ledger = agency.NewLedger(store, agency.WithLedgerClock(c.clock), agency.WithLedgerIDs(ids))
	c.Clients = agency.NewClientDirectory(c.Ledger, ids)
	c.Bookings = agency.NewBookingStore(c.clock, ids)
	return c
}

// =============================================================================
// CLIENT INTENTS
// =============================================================================

func (c *Coordinator) CreateClient(ctx context.Context, in CreateClient) (agency.Client, error) {
	if err := in.Validate(); err != nil {
		return agency.Client{}, err
	}
	client, err := c.Clients.Register(ctx, agency.Client{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
	})
	if err != nil {
		return agency.Client{}, err
	}
	c.log.Info("client registered", zap.String("client_id", string(client.ID)), zap.String("name", client.Name))
	return client, nil
}

func (c *Coordinator) UpdateClient(ctx context.Context, in UpdateClient) (agency.Client, error) {
	if err := in.Validate(); err != nil {
		return agency.Client{}, err
	}
	client, err := c.Clients.Update(ctx, agency.Client{
		ID:      in.ID,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
	})
	if err != nil {
		return agency.Client{}, err
	}
	c.log.Info("client updated", zap.String("client_id", string(client.ID)))
	return client, nil
}

// Profile is a client with its booking history and wallet transactions.
type Profile struct {
	Client       agency.Client
	Bookings     []agency.Booking
	Transactions []agency.Transaction
}

// ClientProfile collects the bookings recorded under the client's CURRENT
// name and its transactions, most recent first.
func (c *Coordinator) ClientProfile(ctx context.Context, id agency.ClientID) (Profile, error) {
	client, err := c.Clients.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	txs, err := c.Ledger.TransactionsOf(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Client:       client,
		Bookings:     c.Bookings.ByClientName(ctx, client.Name),
		Transactions: txs,
	}, nil
}

// =============================================================================
// BOOKING INTENTS
// =============================================================================

// BookingResult describes what a booking creation did.
type BookingResult struct {
	Booking agency.Booking

	// Client is the resolved client after settlement, nil on a soft miss.
	Client *agency.Client

	// Amount is the parsed price; Settlement is the debit id, empty when
	// nothing was debited.
	Amount     decimal.Decimal
	Settlement agency.TransactionID

	Message string
}

// CreateBooking creates a Pending booking and settles it against the wallet
// of the client with the same name.
func (c *Coordinator) CreateBooking(ctx context.Context, in CreateBooking) (BookingResult, error) {
	if err := in.Validate(); err != nil {
		return BookingResult{}, err
	}
	amount := ParsePrice(in.price())

	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.Bookings.Create(ctx, agency.Booking{
		ServiceType:   in.serviceType(),
		Route:         in.Destination,
		ClientName:    in.ClientName,
		Status:        agency.StatusPending,
		Date:          c.clock().Format(agency.DateLayout),
		DepartureDate: in.DepartureDate,
		ReturnDate:    in.ReturnDate,
		Travelers:     in.travelers(),
		Price:         in.price(),
	})
	if err != nil {
		return BookingResult{}, err
	}
	booking, err := c.Bookings.Get(ctx, id)
	if err != nil {
		return BookingResult{}, err
	}

	res := BookingResult{
		Booking: booking,
		Amount:  amount,
		Message: fmt.Sprintf("New booking for %s (%s to %s) created!", booking.ClientName, booking.ServiceType, booking.Route),
	}
	res.Client, res.Settlement = c.settle(ctx, booking, amount)
	return res, nil
}

// settle debits and counts the booking against the client named on it.
// Failures are logged; the booking already exists and stays.
func (c *Coordinator) settle(ctx context.Context, b agency.Booking, amount decimal.Decimal) (*agency.Client, agency.TransactionID) {
	client, ok := c.Clients.FindByName(ctx, b.ClientName)
	if !ok {
		c.log.Info("booking client not registered, settlement skipped",
			zap.String("booking_id", string(b.ID)),
			zap.String("client_name", b.ClientName))
		return nil, ""
	}

	var txID agency.TransactionID
	if amount.IsPositive() {
		var err error
		txID, err = c.Ledger.Debit(ctx, client.ID, amount, agency.BookingReference(b.ID))
		if err != nil {
			c.log.Error("settlement debit failed",
				zap.String("booking_id", string(b.ID)),
				zap.String("client_id", string(client.ID)),
				zap.String("amount", amount.String()),
				zap.Error(err))
			txID = ""
		}
	}
	if _, err := c.Clients.RecordBooking(ctx, client.ID); err != nil {
		c.log.Error("booking counter update failed",
			zap.String("booking_id", string(b.ID)),
			zap.String("client_id", string(client.ID)),
			zap.Error(err))
	}

	c.log.Info("booking settled",
		zap.String("booking_id", string(b.ID)),
		zap.String("client_id", string(client.ID)),
		zap.String("amount", amount.String()),
		zap.String("transaction_id", string(txID)))

	updated, err := c.Clients.Get(ctx, client.ID)
	if err != nil {
		return &client, txID
	}
	return &updated, txID
}

// ChangeBookingStatus sets any status on a booking. No ledger effect.
func (c *Coordinator) ChangeBookingStatus(ctx context.Context, in ChangeBookingStatus) (agency.Booking, error) {
	if err := in.Validate(); err != nil {
		return agency.Booking{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Bookings.SetStatus(ctx, in.BookingID, agency.Status(in.Status)); err != nil {
		return agency.Booking{}, err
	}
	c.log.Info("booking status changed", zap.String("booking_id", string(in.BookingID)), zap.String("status", in.Status))
	return c.Bookings.Get(ctx, in.BookingID)
}

// ConfirmBooking is the quick action for ChangeBookingStatus(id, Confirmed).
func (c *Coordinator) ConfirmBooking(ctx context.Context, id agency.BookingID) (agency.Booking, error) {
	return c.ChangeBookingStatus(ctx, ChangeBookingStatus{BookingID: id, Status: string(agency.StatusConfirmed)})
}

// CancelBooking sets Cancelled. The wallet is not refunded.
func (c *Coordinator) CancelBooking(ctx context.Context, id agency.BookingID) (agency.Booking, error) {
	return c.ChangeBookingStatus(ctx, ChangeBookingStatus{BookingID: id, Status: string(agency.StatusCancelled)})
}

// =============================================================================
// WALLET INTENTS
// =============================================================================

// Deposit describes a completed AddFunds.
type Deposit struct {
	TransactionID agency.TransactionID
	Client        agency.Client
	Message       string
}

// AddFunds credits a client's wallet with a "Manual Deposit". A non-positive
// amount is rejected as a validation failure before the ledger is reached.
func (c *Coordinator) AddFunds(ctx context.Context, in AddFunds) (Deposit, error) {
	if err := in.Validate(); err != nil {
		return Deposit{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	txID, err := c.Ledger.Credit(ctx, in.ClientID, in.Amount, agency.ReferenceManualDeposit)
	if err != nil {
		return Deposit{}, err
	}
	client, err := c.Clients.Get(ctx, in.ClientID)
	if err != nil {
		return Deposit{}, err
	}
	c.log.Info("funds added",
		zap.String("client_id", string(in.ClientID)),
		zap.String("amount", in.Amount.String()),
		zap.String("transaction_id", string(txID)))
	return Deposit{
		TransactionID: txID,
		Client:        client,
		Message:       fmt.Sprintf("Added %s to %s's wallet.", in.Amount.StringFixed(2), client.Name),
	}, nil
}

// =============================================================================
// IMPORT
// =============================================================================

// Import loads existing clients and bookings as they are: explicit ids,
// statuses, dates and booking counters are kept and no settlement runs.
// Bookings are given in display order (most recent first) and stored so that
// List reproduces that order.
func (c *Coordinator) Import(ctx context.Context, clients []agency.Client, bookings []agency.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cl := range clients {
		if _, err := c.Clients.Register(ctx, cl); err != nil {
			return fmt.Errorf("import client %s: %w", cl.ID, err)
		}
	}
	for i := len(bookings) - 1; i >= 0; i-- {
		if _, err := c.Bookings.Create(ctx, bookings[i]); err != nil {
			return fmt.Errorf("import booking %s: %w", bookings[i].ID, err)
		}
	}
	c.log.Info("records imported", zap.Int("clients", len(clients)), zap.Int("bookings", len(bookings)))
	return nil
}
