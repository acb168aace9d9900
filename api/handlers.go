/*
handlers.go - HTTP handlers for the agency API

PURPOSE:
  Thin adapters between HTTP and the lifecycle Coordinator. Each handler
  decodes a request into an intent, calls the Coordinator (or the query and
  export packages for views) and encodes the result.

STATE:
  The Handler owns one Coordinator at a time. Loading or resetting a scenario
  swaps in a fresh Coordinator over the (reset) transaction store. Requests
  hold the swap lock shared for their whole duration, so a swap waits for
  in-flight requests and no write from the old Coordinator lands in the
  store after the reset.

ERROR MAPPING:
  validation (agency.IsValidation) -> 400
  not found  (agency.IsNotFound)   -> 404
  anything else                    -> 500

ENDPOINTS:
  Clients:      list/filter, create, profile, edit, add funds, transactions,
                PDF statement, CSV export
  Bookings:     list/filter, create (with settlement), get, status change,
                confirm, cancel, CSV export
  Transactions: CSV export (all, or one client)
  Audit:        ledger replay check

SEE ALSO:
  - server.go: Route definitions
  - dto.go: Request/response types
  - scenarios.go: Demo data
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/agency-ledger/agency"
	"github.com/warp/agency-ledger/export"
	"github.com/warp/agency-ledger/lifecycle"
	"github.com/warp/agency-ledger/query"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store agency.Store
	clock agency.Clock
	log   *zap.Logger

	// swap is held shared by every request and audit, exclusively while a
	// scenario load or reset replaces the coordinator.
	swap sync.RWMutex

	mu              sync.RWMutex
	coord           *lifecycle.Coordinator
	currentScenario string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

func WithLogger(log *zap.Logger) HandlerOption {
	return func(h *Handler) { h.log = log }
}

// WithClock pins the clock used for bookings, transactions and export dates.
func WithClock(clock agency.Clock) HandlerOption {
	return func(h *Handler) { h.clock = clock }
}

// NewHandler creates a handler over the given transaction store.
func NewHandler(store agency.Store, opts ...HandlerOption) *Handler {
	h := &Handler{store: store, clock: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.coord = h.newCoordinator()
	return h
}

func (h *Handler) newCoordinator() *lifecycle.Coordinator {
	return lifecycle.New(h.store, lifecycle.WithClock(h.clock), lifecycle.WithLogger(h.log))
}

// Coordinator returns the coordinator currently serving requests.
func (h *Handler) Coordinator() *lifecycle.Coordinator {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.coord
}

// RunAudit replays every wallet of the current coordinator.
func (h *Handler) RunAudit(ctx context.Context) ([]agency.Discrepancy, error) {
	h.swap.RLock()
	defer h.swap.RUnlock()
	return h.Coordinator().Ledger.Verify(ctx)
}

// holdCoordinator keeps scenario swaps out until the request completes.
func (h *Handler) holdCoordinator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.swap.RLock()
		defer h.swap.RUnlock()
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns clients, optionally filtered by ?q= on name or email.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	c := h.Coordinator()
	clients := query.Clients(c.Clients.List(r.Context()), query.ClientFilter{Query: r.URL.Query().Get("q")})
	writeJSON(w, http.StatusOK, toClientDTOs(clients))
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client, err := h.Coordinator().CreateClient(r.Context(), lifecycle.CreateClient{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeDomainError(w, "Failed to create client", err)
		return
	}

	writeJSON(w, http.StatusCreated, ClientResultDTO{
		Client:  toClientDTO(client),
		Message: fmt.Sprintf("Client %s added successfully.", client.Name),
	})
}

// GetClient returns the client profile: snapshot, bookings and transactions.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Coordinator().ClientProfile(r.Context(), clientID(r))
	if err != nil {
		writeDomainError(w, "Failed to get client", err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileDTO{
		Client:       toClientDTO(profile.Client),
		Bookings:     toBookingDTOs(profile.Bookings),
		Transactions: toTransactionDTOs(profile.Transactions),
	})
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client, err := h.Coordinator().UpdateClient(r.Context(), lifecycle.UpdateClient{
		ID:      clientID(r),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeDomainError(w, "Failed to update client", err)
		return
	}

	writeJSON(w, http.StatusOK, ClientResultDTO{
		Client:  toClientDTO(client),
		Message: fmt.Sprintf("Client details for %s updated successfully.", client.Name),
	})
}

// AddFunds credits the client's wallet.
func (h *Handler) AddFunds(w http.ResponseWriter, r *http.Request) {
	var req AddFundsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	deposit, err := h.Coordinator().AddFunds(r.Context(), lifecycle.AddFunds{
		ClientID: clientID(r),
		Amount:   req.Amount,
	})
	if err != nil {
		writeDomainError(w, "Failed to add funds", err)
		return
	}

	writeJSON(w, http.StatusCreated, DepositDTO{
		TransactionID: string(deposit.TransactionID),
		Client:        toClientDTO(deposit.Client),
		Message:       deposit.Message,
	})
}

// GetClientTransactions returns a client's wallet history, most recent first.
func (h *Handler) GetClientTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Coordinator().Ledger.TransactionsOf(r.Context(), clientID(r))
	if err != nil {
		writeDomainError(w, "Failed to get transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// GetStatement streams the client's PDF statement of account.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Coordinator().ClientProfile(r.Context(), clientID(r))
	if err != nil {
		writeDomainError(w, "Failed to get client", err)
		return
	}

	now := h.clock()
	pdf, err := export.Statement(profile.Client, profile.Transactions, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render statement", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(export.StatementFilename(profile.Client.ID, now)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *Handler) ExportClients(w http.ResponseWriter, r *http.Request) {
	c := h.Coordinator()
	clients := query.Clients(c.Clients.List(r.Context()), query.ClientFilter{Query: r.URL.Query().Get("q")})
	writeCSV(w, export.Filename("clients", h.clock()), export.Clients(clients))
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

// ListBookings returns the filtered booking view, most recent first.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := bookingFilter(r)
	if err != nil {
		writeDomainError(w, "Invalid filter", err)
		return
	}
	c := h.Coordinator()
	writeJSON(w, http.StatusOK, toBookingDTOs(query.Bookings(c.Bookings.List(r.Context()), filter)))
}

// CreateBooking creates a Pending booking and settles it against the
// wallet of the client with the same name.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := h.Coordinator().CreateBooking(r.Context(), lifecycle.CreateBooking{
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ServiceType:   req.ServiceType,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		NumTravelers:  req.NumTravelers,
		Travelers:     req.Travelers,
		Price:         req.Price,
	})
	if err != nil {
		writeDomainError(w, "Failed to create booking", err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookingResultDTO(res))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Coordinator().Bookings.Get(r.Context(), bookingID(r))
	if err != nil {
		writeDomainError(w, "Failed to get booking", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// ChangeBookingStatus sets any status. There is no transition table.
func (h *Handler) ChangeBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	b, err := h.Coordinator().ChangeBookingStatus(r.Context(), lifecycle.ChangeBookingStatus{
		BookingID: bookingID(r),
		Status:    req.Status,
	})
	if err != nil {
		writeDomainError(w, "Failed to change booking status", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Coordinator().ConfirmBooking(r.Context(), bookingID(r))
	if err != nil {
		writeDomainError(w, "Failed to confirm booking", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// CancelBooking sets Cancelled. No refund is issued.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Coordinator().CancelBooking(r.Context(), bookingID(r))
	if err != nil {
		writeDomainError(w, "Failed to cancel booking", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// ExportBookings downloads the filtered booking view as CSV.
func (h *Handler) ExportBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := bookingFilter(r)
	if err != nil {
		writeDomainError(w, "Invalid filter", err)
		return
	}
	c := h.Coordinator()
	bookings := query.Bookings(c.Bookings.List(r.Context()), filter)
	writeCSV(w, export.Filename("bookings", h.clock()), export.Bookings(bookings))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ExportTransactions downloads every transaction, or one client's with
// ?client=<id>, as CSV.
func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	c := h.Coordinator()

	var (
		txs []agency.Transaction
		err error
	)
	if id := r.URL.Query().Get("client"); id != "" {
		txs, err = c.Ledger.TransactionsOf(r.Context(), agency.ClientID(id))
	} else {
		txs, err = c.Ledger.Transactions(r.Context())
	}
	if err != nil {
		writeDomainError(w, "Failed to export transactions", err)
		return
	}
	writeCSV(w, export.Filename("transactions", h.clock()), export.Transactions(txs))
}

// Audit replays every wallet and reports balances that diverge from their
// transaction history.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	ds, err := h.RunAudit(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to audit ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditDTO(h.clock().UTC(), ds))
}

// =============================================================================
// HELPERS
// =============================================================================

func clientID(r *http.Request) agency.ClientID {
	return agency.ClientID(chi.URLParam(r, "id"))
}

func bookingID(r *http.Request) agency.BookingID {
	return agency.BookingID(chi.URLParam(r, "id"))
}

// bookingFilter reads ?status=&q=&from=&to=. An unknown status or a
// malformed date is a validation error.
func bookingFilter(r *http.Request) (query.BookingFilter, error) {
	q := r.URL.Query()
	f := query.BookingFilter{
		Status: q.Get("status"),
		Query:  q.Get("q"),
		From:   q.Get("from"),
		To:     q.Get("to"),
	}
	if f.Status != "" && f.Status != agency.StatusAll {
		if _, err := agency.ParseStatus(f.Status); err != nil {
			return f, err
		}
	}
	bounds := []struct{ field, value string }{{"from", f.From}, {"to", f.To}}
	for _, b := range bounds {
		if b.value == "" {
			continue
		}
		if _, err := time.Parse(agency.DateLayout, b.value); err != nil {
			return f, &agency.ValidationError{Field: b.field, Message: "must be a YYYY-MM-DD date"}
		}
	}
	return f, nil
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the agency error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case agency.IsValidation(err):
		status = http.StatusBadRequest
	case agency.IsNotFound(err):
		status = http.StatusNotFound
	}
	writeError(w, status, message, err)
}

func writeCSV(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
