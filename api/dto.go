/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the agency domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts and balances are decimal.Decimal and travel as JSON strings
  ("450", "-12.5"). AddFundsRequest accepts a number or a string.

VALIDATION:
  Validation is done by the lifecycle intents, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - lifecycle/intents.go: Intent validation
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/agency-ledger/agency"
	"github.com/warp/agency-ledger/lifecycle"
)

// =============================================================================
// CLIENTS
// =============================================================================

type ClientDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	TotalBookings int             `json:"total_bookings"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
}

// ClientRequest is the body of client creation and edits.
type ClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type ClientResultDTO struct {
	Client  ClientDTO `json:"client"`
	Message string    `json:"message"`
}

// ProfileDTO is a client with booking history and wallet transactions.
type ProfileDTO struct {
	Client       ClientDTO        `json:"client"`
	Bookings     []BookingDTO     `json:"bookings"`
	Transactions []TransactionDTO `json:"transactions"`
}

type AddFundsRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type DepositDTO struct {
	TransactionID string    `json:"transaction_id"`
	Client        ClientDTO `json:"client"`
	Message       string    `json:"message"`
}

// =============================================================================
// BOOKINGS
// =============================================================================

type BookingDTO struct {
	ID            string   `json:"id"`
	ServiceType   string   `json:"service_type"`
	Route         string   `json:"route"`
	Client        string   `json:"client"`
	Status        string   `json:"status"`
	Date          string   `json:"date"`
	DepartureDate string   `json:"departure_date,omitempty"`
	ReturnDate    string   `json:"return_date,omitempty"`
	Travelers     []string `json:"travelers"`
	TravelerCount int      `json:"traveler_count"`
	Price         string   `json:"price"`
}

type CreateBookingRequest struct {
	ClientName    string   `json:"client_name"`
	ClientEmail   string   `json:"client_email"`
	ServiceType   string   `json:"service_type"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    string   `json:"return_date"`
	NumTravelers  int      `json:"num_travelers"`
	Travelers     []string `json:"travelers"`
	Price         string   `json:"price"`
}

// BookingResultDTO reports a created booking and its settlement.
type BookingResultDTO struct {
	Booking       BookingDTO      `json:"booking"`
	Client        *ClientDTO      `json:"client,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Message       string          `json:"message"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// LEDGER
// =============================================================================

type TransactionDTO struct {
	ID         string          `json:"id"`
	ClientID   string          `json:"client_id"`
	ClientName string          `json:"client_name"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	Timestamp  time.Time       `json:"timestamp"`
}

type DiscrepancyDTO struct {
	ClientID string          `json:"client_id"`
	Stored   decimal.Decimal `json:"stored"`
	Replayed decimal.Decimal `json:"replayed"`
}

// AuditDTO is the result of replaying every wallet.
type AuditDTO struct {
	CheckedAt     time.Time        `json:"checked_at"`
	Consistent    bool             `json:"consistent"`
	Discrepancies []DiscrepancyDTO `json:"discrepancies"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toClientDTO(c agency.Client) ClientDTO {
	return ClientDTO{
		ID:            string(c.ID),
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		TotalBookings: c.TotalBookings,
		WalletBalance: c.WalletBalance,
	}
}

func toClientDTOs(clients []agency.Client) []ClientDTO {
	out := make([]ClientDTO, len(clients))
	for i, c := range clients {
		out[i] = toClientDTO(c)
	}
	return out
}

func toBookingDTO(b agency.Booking) BookingDTO {
	travelers := b.Travelers
	if travelers == nil {
		travelers = []string{}
	}
	return BookingDTO{
		ID:            string(b.ID),
		ServiceType:   string(b.ServiceType),
		Route:         b.Route,
		Client:        b.ClientName,
		Status:        string(b.Status),
		Date:          b.Date,
		DepartureDate: b.DepartureDate,
		ReturnDate:    b.ReturnDate,
		Travelers:     travelers,
		TravelerCount: b.TravelerCount(),
		Price:         b.Price,
	}
}

func toBookingDTOs(bookings []agency.Booking) []BookingDTO {
	out := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		out[i] = toBookingDTO(b)
	}
	return out
}

func toTransactionDTO(tx agency.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:         string(tx.ID),
		ClientID:   string(tx.ClientID),
		ClientName: tx.ClientName,
		Type:       string(tx.Type),
		Amount:     tx.Amount,
		Reference:  tx.Reference,
		Timestamp:  tx.Timestamp,
	}
}

func toTransactionDTOs(txs []agency.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionDTO(tx)
	}
	return out
}

func toBookingResultDTO(res lifecycle.BookingResult) BookingResultDTO {
	dto := BookingResultDTO{
		Booking:       toBookingDTO(res.Booking),
		Amount:        res.Amount,
		TransactionID: string(res.Settlement),
		Message:       res.Message,
	}
	if res.Client != nil {
		c := toClientDTO(*res.Client)
		dto.Client = &c
	}
	return dto
}

func toAuditDTO(checkedAt time.Time, ds []agency.Discrepancy) AuditDTO {
	out := AuditDTO{
		CheckedAt:     checkedAt,
		Consistent:    len(ds) == 0,
		Discrepancies: make([]DiscrepancyDTO, len(ds)),
	}
	for i, d := range ds {
		out.Discrepancies[i] = DiscrepancyDTO{
			ClientID: string(d.ClientID),
			Stored:   d.Stored,
			Replayed: d.Replayed,
		}
	}
	return out
}
