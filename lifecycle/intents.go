package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/agency-ledger/agency"
)

// =============================================================================
// INTENTS - One validated request object per inbound operation
// =============================================================================

// CreateClient registers a client. Phone and Address are optional.
type CreateClient struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

func (i CreateClient) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return agency.Required("name")
	}
	if strings.TrimSpace(i.Email) == "" {
		return agency.Required("email")
	}
	return nil
}

// UpdateClient edits name and contact fields of an existing client.
type UpdateClient struct {
	ID      agency.ClientID
	Name    string
	Email   string
	Phone   string
	Address string
}

func (i UpdateClient) Validate() error {
	if i.ID == "" {
		return agency.Required("id")
	}
	return CreateClient{Name: i.Name, Email: i.Email}.Validate()
}

// CreateBooking books a service for a client identified by name.
//
// ServiceType defaults to Flight, NumTravelers is clamped to at least 1 and an
// empty Price means "to be determined" ($0.00, no settlement). Neither
// NumTravelers nor Travelers may exceed MaxTravelers.
type CreateBooking struct {
	ClientName    string
	ClientEmail   string
	ServiceType   string
	Destination   string
	DepartureDate string
	ReturnDate    string
	NumTravelers  int
	Travelers     []string // optional explicit names, lead traveler first
	Price         string
}

// DefaultPrice is recorded when a booking is created without a price.
const DefaultPrice = "$0.00"

// MaxTravelers bounds the party size of a single booking.
const MaxTravelers = 100

func (i CreateBooking) Validate() error {
	if strings.TrimSpace(i.ClientName) == "" {
		return agency.Required("clientName")
	}
	if strings.TrimSpace(i.ClientEmail) == "" {
		return agency.Required("clientEmail")
	}
	if i.ServiceType != "" {
		if _, err := agency.ParseServiceType(i.ServiceType); err != nil {
			return err
		}
	}
	if strings.TrimSpace(i.Destination) == "" {
		return agency.Required("destination")
	}
	if i.DepartureDate == "" {
		return agency.Required("departureDate")
	}
	if _, err := time.Parse(agency.DateLayout, i.DepartureDate); err != nil {
		return &agency.ValidationError{Field: "departureDate", Message: "must be a YYYY-MM-DD date"}
	}
	if i.ReturnDate != "" {
		if _, err := time.Parse(agency.DateLayout, i.ReturnDate); err != nil {
			return &agency.ValidationError{Field: "returnDate", Message: "must be a YYYY-MM-DD date"}
		}
	}
	if i.NumTravelers > MaxTravelers {
		return &agency.ValidationError{Field: "numTravelers", Message: fmt.Sprintf("must be at most %d", MaxTravelers)}
	}
	if len(i.Travelers) > MaxTravelers {
		return &agency.ValidationError{Field: "travelers", Message: fmt.Sprintf("must list at most %d names", MaxTravelers)}
	}
	return nil
}

func (i CreateBooking) serviceType() agency.ServiceType {
	if i.ServiceType == "" {
		return agency.ServiceFlight
	}
	return agency.ServiceType(i.ServiceType)
}

func (i CreateBooking) price() string {
	if strings.TrimSpace(i.Price) == "" {
		return DefaultPrice
	}
	return i.Price
}

// travelers returns the explicit traveler list, or the client followed by
// numbered guests up to NumTravelers.
func (i CreateBooking) travelers() []string {
	if len(i.Travelers) > 0 {
		return append([]string(nil), i.Travelers...)
	}
	n := i.NumTravelers
	if n < 1 {
		n = 1
	}
	out := make([]string, 0, n)
	out = append(out, i.ClientName)
	for g := 2; g <= n; g++ {
		out = append(out, fmt.Sprintf("Guest %d", g))
	}
	return out
}

// ChangeBookingStatus moves a booking to any status.
type ChangeBookingStatus struct {
	BookingID agency.BookingID
	Status    string
}

func (i ChangeBookingStatus) Validate() error {
	if i.BookingID == "" {
		return agency.Required("bookingId")
	}
	if i.Status == agency.StatusAll {
		return &agency.ValidationError{Field: "status", Message: "All is a filter, not a booking status"}
	}
	_, err := agency.ParseStatus(i.Status)
	return err
}

// AddFunds tops up a client's wallet.
type AddFunds struct {
	ClientID agency.ClientID
	Amount   decimal.Decimal
}

func (i AddFunds) Validate() error {
	if i.ClientID == "" {
		return agency.Required("clientId")
	}
	return agency.ValidateAmount(i.Amount)
}
