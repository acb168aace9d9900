/*
Package agency provides the client ledger and booking engine of the travel agency.

PURPOSE:
  This package owns the records with real invariants: the append-only wallet
  ledger, the derived wallet balance of every client, the booking records and
  their statuses, and the client directory. Presentation (forms, modals, file
  downloads) lives outside and calls in through the lifecycle package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Client: a registered customer with a prepaid wallet
  - Booking: a travel service sold to a client, referenced by client NAME
  - Transaction: an immutable wallet entry (Credit or Debit)
  - Status / ServiceType: the closed enumerations of the booking model

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified, only appended
  2. Precision: Uses decimal.Decimal for every monetary amount
  3. Type Safety: Distinct ID types keep client/booking/transaction ids apart
  4. Derivation: Wallet balance is the signed sum of the client's transactions

USAGE:
  ledger := agency.NewLedger(store.NewMemory())
  clients := agency.NewClientDirectory(ledger, nil)
  c, _ := clients.Register(ctx, agency.Client{Name: "John Doe", Email: "john@example.com"})
  txID, _ := ledger.Credit(ctx, c.ID, decimal.NewFromInt(500), agency.ReferenceManualDeposit)

SEE ALSO:
  - ledger.go: Ledger Store (credit, debit, balance, replay)
  - bookings.go: Booking Store (create, free status transitions)
  - clients.go: Client directory (registration, contact edits, booking counter)
  - errors.go: Error taxonomy
*/
package agency

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO 8601 calendar date format used for every booking date.
// Dates are kept as strings in this layout so range filters can compare them
// lexicographically.
const DateLayout = "2006-01-02"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClientID string
type BookingID string
type TransactionID string

// =============================================================================
// CLIENT
// =============================================================================

// Client is a snapshot of a registered client.
//
// TotalBookings and WalletBalance are derived: the lifecycle coordinator
// maintains the first, the Ledger is the only writer of the second. Neither is
// accepted from an edit intent.
type Client struct {
	ID            ClientID
	Name          string
	Email         string
	Phone         string
	Address       string
	TotalBookings int
	WalletBalance decimal.Decimal
}

// =============================================================================
// BOOKING
// =============================================================================

type ServiceType string

const (
	ServiceFlight  ServiceType = "Flight"
	ServiceHotel   ServiceType = "Hotel"
	ServicePackage ServiceType = "Package"
	ServiceVisa    ServiceType = "Visa"
	ServiceAddOn   ServiceType = "Add-on"
)

// ServiceTypes lists the service types in display order.
var ServiceTypes = []ServiceType{ServiceFlight, ServiceHotel, ServicePackage, ServiceVisa, ServiceAddOn}

func (s ServiceType) Valid() bool {
	for _, v := range ServiceTypes {
		if s == v {
			return true
		}
	}
	return false
}

// ParseServiceType returns the service type with the given name.
func ParseServiceType(s string) (ServiceType, error) {
	st := ServiceType(s)
	if !st.Valid() {
		return "", &ValidationError{Field: "serviceType", Message: fmt.Sprintf("unknown service type %q", s)}
	}
	return st, nil
}

// Status is the state of a booking.
//
// Transitions are NOT restricted: any status may follow any other through an
// explicit status change. Cancelled is terminal in practice only.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusSubmitted Status = "Submitted"
	StatusCancelled Status = "Cancelled"
)

// StatusAll is the filter value that matches every status. It is never a
// booking's status.
const StatusAll = "All"

// Statuses lists the booking statuses in the order the agent portal shows them.
var Statuses = []Status{StatusConfirmed, StatusPending, StatusCompleted, StatusCancelled, StatusSubmitted}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus returns the booking status with the given name.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown booking status %q", s)}
	}
	return st, nil
}

// Booking is a travel service sold to a client.
//
// ClientName is a weak reference: it holds the client's name at creation
// time and is not rewritten when the client is later renamed.
type Booking struct {
	ID            BookingID
	ServiceType   ServiceType
	Route         string
	ClientName    string
	Status        Status
	Date          string // creation date, DateLayout
	DepartureDate string // optional, DateLayout
	ReturnDate    string // optional, DateLayout
	Travelers     []string
	Price         string // display string, e.g. "$450.00"
}

// TravelerCount is the number of travelers on the booking.
func (b Booking) TravelerCount() int { return len(b.Travelers) }

func (b Booking) clone() Booking {
	b.Travelers = append([]string(nil), b.Travelers...)
	return b
}

// =============================================================================
// WALLET TRANSACTION - Immutable ledger entry
// =============================================================================

type TransactionType string

const (
	TxCredit TransactionType = "Credit"
	TxDebit  TransactionType = "Debit"
)

// ReferenceManualDeposit is the reference recorded for agent-entered top-ups.
const ReferenceManualDeposit = "Manual Deposit"

// BookingReference is the reference recorded for a booking settlement debit.
func BookingReference(id BookingID) string { return "Booking " + string(id) }

type Transaction struct {
	ID         TransactionID
	ClientID   ClientID
	ClientName string // denormalized for display, frozen at write time
	Amount     decimal.Decimal
	Type       TransactionType
	Reference  string
	Timestamp  time.Time
}

// Signed returns the transaction's contribution to the wallet balance:
// +Amount for a credit, -Amount for a debit.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TxDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Replay folds transactions into a balance starting from zero.
func Replay(txs []Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		balance = balance.Add(tx.Signed())
	}
	return balance
}
