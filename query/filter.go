/*
Package query filters the booking and client list views.

FILTER SEMANTICS (bookings):
  - Status: exact match; "All" or empty matches every booking
  - Query:  case-insensitive substring of id, client name or route
  - From/To: inclusive bounds on the creation date, compared as
    YYYY-MM-DD strings; an empty bound is open

  All conditions are ANDed. Filtering never reorders: results keep the order
  of the input (the Booking Store lists most recent first).

SEE ALSO:
  - agency/bookings.go: List ordering
  - export/csv.go: Exports the filtered view
*/
package query

import (
	"strings"

	"github.com/warp/agency-ledger/agency"
)

// BookingFilter selects bookings for the list view and exports.
type BookingFilter struct {
	Status string
	Query  string
	From   string
	To     string
}

// Match reports whether b passes every condition of f.
func (f BookingFilter) Match(b agency.Booking) bool {
	if f.Status != "" && f.Status != agency.StatusAll && string(b.Status) != f.Status {
		return false
	}
	if q := strings.ToLower(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(string(b.ID)), q) &&
			!strings.Contains(strings.ToLower(b.ClientName), q) &&
			!strings.Contains(strings.ToLower(b.Route), q) {
			return false
		}
	}
	if f.From != "" && b.Date < f.From {
		return false
	}
	if f.To != "" && b.Date > f.To {
		return false
	}
	return true
}

// Bookings returns the bookings matching f, in input order.
func Bookings(bookings []agency.Booking, f BookingFilter) []agency.Booking {
	out := make([]agency.Booking, 0, len(bookings))
	for _, b := range bookings {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// ClientFilter selects clients by a case-insensitive substring of name or email.
type ClientFilter struct {
	Query string
}

// Match reports whether c passes f; an empty query matches every client.
func (f ClientFilter) Match(c agency.Client) bool {
	q := strings.ToLower(f.Query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.Email), q)
}

// Clients returns the clients matching f, in input order.
func Clients(clients []agency.Client, f ClientFilter) []agency.Client {
	out := make([]agency.Client, 0, len(clients))
	for _, c := range clients {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}
