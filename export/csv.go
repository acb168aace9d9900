/*
Package export renders views of the agency into downloadable documents.

CSV FORMAT:
  Header row first, one record per line, comma-separated, lines joined with
  "\n" and no trailing newline. A field is quoted, with internal quotes
  doubled, if and only if it contains a comma, a double quote or a newline.
  Everything else is emitted verbatim (leading spaces and "\r" included).
  Absent values render as an empty field.

VALUE FORMATTING:
  string            verbatim
  int               decimal digits
  decimal.Decimal   default string form ("450", "-12.5"), no padding
  float64           shortest decimal form
  time.Time         RFC 3339, zero time renders empty
  nil               empty

SEE ALSO:
  - query/filter.go: Produces the rows handed to Render
  - statement.go: PDF wallet statement
*/
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/agency-ledger/agency"
)

// Column is one field of an export: a header and how to read it from a row.
type Column[T any] struct {
	Header string
	Value  func(T) any
}

// Render produces the CSV text for rows under the given columns.
func Render[T any](columns []Column[T], rows []T) string {
	lines := make([]string, 0, len(rows)+1)

	fields := make([]string, len(columns))
	for i, col := range columns {
		fields[i] = Escape(col.Header)
	}
	lines = append(lines, strings.Join(fields, ","))

	for _, row := range rows {
		fields := make([]string, len(columns))
		for i, col := range columns {
			fields[i] = Escape(format(col.Value(row)))
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// Escape applies the quoting rule to a single field.
func Escape(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case decimal.Decimal:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// =============================================================================
// COLUMN SETS
// =============================================================================

var BookingColumns = []Column[agency.Booking]{
	{"Booking ID", func(b agency.Booking) any { return string(b.ID) }},
	{"Service Type", func(b agency.Booking) any { return string(b.ServiceType) }},
	{"Route", func(b agency.Booking) any { return b.Route }},
	{"Client", func(b agency.Booking) any { return b.ClientName }},
	{"Status", func(b agency.Booking) any { return string(b.Status) }},
	{"Date", func(b agency.Booking) any { return b.Date }},
	{"Traveler Count", func(b agency.Booking) any { return b.TravelerCount() }},
	{"Departure Date", func(b agency.Booking) any { return b.DepartureDate }},
	{"Return Date", func(b agency.Booking) any { return b.ReturnDate }},
	{"Price", func(b agency.Booking) any { return b.Price }},
}

var ClientColumns = []Column[agency.Client]{
	{"Client ID", func(c agency.Client) any { return string(c.ID) }},
	{"Name", func(c agency.Client) any { return c.Name }},
	{"Email", func(c agency.Client) any { return c.Email }},
	{"Phone", func(c agency.Client) any { return c.Phone }},
	{"Address", func(c agency.Client) any { return c.Address }},
	{"Total Bookings", func(c agency.Client) any { return c.TotalBookings }},
	{"Wallet Balance", func(c agency.Client) any { return c.WalletBalance }},
}

var TransactionColumns = []Column[agency.Transaction]{
	{"Transaction ID", func(t agency.Transaction) any { return string(t.ID) }},
	{"Client ID", func(t agency.Transaction) any { return string(t.ClientID) }},
	{"Client", func(t agency.Transaction) any { return t.ClientName }},
	{"Type", func(t agency.Transaction) any { return string(t.Type) }},
	{"Amount", func(t agency.Transaction) any { return t.Amount }},
	{"Reference", func(t agency.Transaction) any { return t.Reference }},
	{"Timestamp", func(t agency.Transaction) any { return t.Timestamp }},
}

func Bookings(bookings []agency.Booking) string { return Render(BookingColumns, bookings) }

func Clients(clients []agency.Client) string { return Render(ClientColumns, clients) }

func Transactions(txs []agency.Transaction) string { return Render(TransactionColumns, txs) }

// Filename names an export file after its kind and the export date,
// e.g. "bookings_export_2024-11-15.csv".
func Filename(kind string, at time.Time) string {
	return fmt.Sprintf("%s_export_%s.csv", kind, at.Format(agency.DateLayout))
}
