package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agency-ledger/agency/store"
	"github.com/warp/agency-ledger/api"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *api.Handler) {
	t.Helper()
	h := api.NewHandler(store.NewMemory(), api.WithClock(func() time.Time { return testNow }))
	require.NoError(t, h.LoadScenario(context.Background(), api.ScenarioSampleAgency))

	srv := httptest.NewServer(api.NewRouter(h, []string{"http://localhost:5173"}))
	t.Cleanup(srv.Close)
	return srv, h
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func bookingIDs(bookings []api.BookingDTO) []string {
	out := make([]string, len(bookings))
	for i, b := range bookings {
		out[i] = b.ID
	}
	return out
}

// =============================================================================
// BOOKINGS
// =============================================================================

func TestListBookings_Filtered(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/bookings?status=All&q=LAX", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"B001", "B005"}, bookingIDs(decode[[]api.BookingDTO](t, resp)))
}

func TestListBookings_InvalidFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, srv.URL+"/api/bookings?status=Archived", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, srv.URL+"/api/bookings?from=yesterday", nil).StatusCode)
}

func TestCreateBooking_SettlesWallet(t *testing.T) {
	// GIVEN: The sample agency
	srv, _ := newTestServer(t)

	// WHEN: Booking a $450.00 flight for John Doe
	resp := do(t, http.MethodPost, srv.URL+"/api/bookings", api.CreateBookingRequest{
		ClientName:    "John Doe",
		ClientEmail:   "john.doe@example.com",
		ServiceType:   "Flight",
		Destination:   "NYC to LAX",
		DepartureDate: "2024-12-01",
		NumTravelers:  2,
		Price:         "$450.00",
	})

	// THEN: Created, Pending, wallet debited
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[api.BookingResultDTO](t, resp)
	assert.Equal(t, "Pending", res.Booking.Status)
	assert.Equal(t, []string{"John Doe", "Guest 2"}, res.Booking.Travelers)
	assert.NotEmpty(t, res.TransactionID)
	require.NotNil(t, res.Client)
	assert.True(t, res.Client.WalletBalance.Equal(decimal.NewFromInt(-450)))
	assert.Equal(t, 6, res.Client.TotalBookings)

	// AND: The client profile shows the debit and the new booking first
	profile := decode[api.ProfileDTO](t, do(t, http.MethodGet, srv.URL+"/api/clients/C001", nil))
	require.Len(t, profile.Transactions, 1)
	assert.Equal(t, "Debit", profile.Transactions[0].Type)
	assert.Equal(t, res.Booking.ID, profile.Bookings[0].ID)
}

func TestCreateBooking_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/bookings", api.CreateBookingRequest{ClientName: "John Doe"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[api.ErrorResponse](t, resp)
	assert.Equal(t, "Failed to create booking", body.Error)
}

func TestCreateBooking_OversizedParty_Rejected(t *testing.T) {
	// GIVEN: The sample agency
	srv, _ := newTestServer(t)

	// WHEN: Requesting an absurd party size
	resp := do(t, http.MethodPost, srv.URL+"/api/bookings", api.CreateBookingRequest{
		ClientName:    "John Doe",
		ClientEmail:   "john.doe@example.com",
		Destination:   "NYC to LAX",
		DepartureDate: "2024-12-01",
		NumTravelers:  1 << 30,
		Price:         "$450.00",
	})

	// THEN: Rejected, nothing booked and the wallet untouched
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	bookings := decode[[]api.BookingDTO](t, do(t, http.MethodGet, srv.URL+"/api/bookings", nil))
	assert.Len(t, bookings, 5)
	profile := decode[api.ProfileDTO](t, do(t, http.MethodGet, srv.URL+"/api/clients/C001", nil))
	assert.Empty(t, profile.Transactions)
}

func TestBookingStatusEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPut, srv.URL+"/api/bookings/B005/status", api.ChangeStatusRequest{Status: "Pending"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pending", decode[api.BookingDTO](t, resp).Status)

	resp = do(t, http.MethodPost, srv.URL+"/api/bookings/B002/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Confirmed", decode[api.BookingDTO](t, resp).Status)

	resp = do(t, http.MethodPost, srv.URL+"/api/bookings/B001/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cancelled", decode[api.BookingDTO](t, resp).Status)

	assert.Equal(t, http.StatusNotFound, do(t, http.MethodPost, srv.URL+"/api/bookings/B999/cancel", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/api/bookings/B999", nil).StatusCode)
}

func TestExportBookings(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/bookings/export?status=Pending", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="bookings_export_2024-11-20.csv"`, resp.Header.Get("Content-Disposition"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t,
		"Booking ID,Service Type,Route,Client,Status,Date,Traveler Count,Departure Date,Return Date,Price\n"+
			"B002,Hotel,Paris Hilton - Paris,Jane Smith,Pending,2024-11-15,2,2024-12-10,2024-12-15,$1200.00",
		string(body))
}

// =============================================================================
// CLIENTS AND WALLETS
// =============================================================================

func TestAddFunds(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/clients/C002/funds", map[string]any{"amount": "250.75"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	dep := decode[api.DepositDTO](t, resp)
	assert.True(t, dep.Client.WalletBalance.Equal(decimal.RequireFromString("250.75")))

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/api/clients/C002/funds", map[string]any{"amount": 0}).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/api/clients/C002/funds", map[string]any{"amount": -5}).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodPost, srv.URL+"/api/clients/C404/funds", map[string]any{"amount": 5}).StatusCode)
}

func TestCreateAndUpdateClient(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/clients", api.ClientRequest{Name: "Ana Lima", Email: "ana@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.ClientResultDTO](t, resp)

	resp = do(t, http.MethodPut, srv.URL+"/api/clients/"+created.Client.ID, api.ClientRequest{
		Name: "Ana Lima", Email: "ana@example.com", Address: "1 Rua Nova, Lisboa",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[api.ClientResultDTO](t, resp)
	assert.Equal(t, "Client details for Ana Lima updated successfully.", updated.Message)
	assert.Equal(t, "1 Rua Nova, Lisboa", updated.Client.Address)

	clients := decode[[]api.ClientDTO](t, do(t, http.MethodGet, srv.URL+"/api/clients?q=lima", nil))
	require.Len(t, clients, 1)

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/api/clients", api.ClientRequest{Name: "No Email"}).StatusCode)
}

func TestExportClients_QuotesAddresses(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/clients/export?q=john", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `,"123 Main St, Anytown",5,0`)
	assert.NotContains(t, string(body), "Jane Smith")
}

func TestStatement(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/clients/C001/statement", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestExportTransactions(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, http.MethodPost, srv.URL+"/api/clients/C001/funds", map[string]any{"amount": 100})
	do(t, http.MethodPost, srv.URL+"/api/clients/C002/funds", map[string]any{"amount": 50})

	body, _ := io.ReadAll(do(t, http.MethodGet, srv.URL+"/api/transactions/export?client=C002", nil).Body)
	lines := strings.Split(string(body), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], ",C002,Jane Smith,Credit,50,Manual Deposit,2024-11-20T10:00:00Z")

	body, _ = io.ReadAll(do(t, http.MethodGet, srv.URL+"/api/transactions/export", nil).Body)
	assert.Len(t, strings.Split(string(body), "\n"), 3)
}

// =============================================================================
// AUDIT AND SCENARIOS
// =============================================================================

func TestAudit_Consistent(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, http.MethodPost, srv.URL+"/api/clients/C001/funds", map[string]any{"amount": 100})

	resp := do(t, http.MethodGet, srv.URL+"/api/audit", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	audit := decode[api.AuditDTO](t, resp)
	assert.True(t, audit.Consistent)
	assert.Empty(t, audit.Discrepancies)
}

func TestScenarios_ResetAndReload(t *testing.T) {
	srv, h := newTestServer(t)
	do(t, http.MethodPost, srv.URL+"/api/clients/C001/funds", map[string]any{"amount": 100})

	// Reset clears clients and transactions
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, srv.URL+"/api/scenarios/reset", nil).StatusCode)
	assert.Empty(t, decode[[]api.ClientDTO](t, do(t, http.MethodGet, srv.URL+"/api/clients", nil)))
	assert.Empty(t, h.CurrentScenario())

	// Reload brings the fixture back with empty wallets
	resp := do(t, http.MethodPost, srv.URL+"/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: api.ScenarioSampleAgency})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	clients := decode[[]api.ClientDTO](t, do(t, http.MethodGet, srv.URL+"/api/clients", nil))
	require.Len(t, clients, 2)
	assert.True(t, clients[0].WalletBalance.IsZero())

	assert.Equal(t, http.StatusBadRequest,
		do(t, http.MethodPost, srv.URL+"/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"}).StatusCode)
}

func TestScenarioReload_WaitsForInFlightBookings(t *testing.T) {
	// GIVEN: The sample agency served by a router
	ctx := context.Background()
	h := api.NewHandler(store.NewMemory())
	require.NoError(t, h.LoadScenario(ctx, api.ScenarioSampleAgency))
	router := api.NewRouter(h, nil)
	body, err := json.Marshal(api.CreateBookingRequest{
		ClientName:    "John Doe",
		ClientEmail:   "john.doe@example.com",
		Destination:   "NYC to LAX",
		DepartureDate: "2024-12-01",
		Price:         "$450.00",
	})
	require.NoError(t, err)

	// WHEN: Settling bookings while the scenario is reloaded concurrently
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(httptest.NewRecorder(), req)
		}()
		go func() {
			defer wg.Done()
			_ = h.LoadScenario(ctx, api.ScenarioSampleAgency)
		}()
	}
	wg.Wait()

	// THEN: No debit from a replaced coordinator leaked into the new wallets
	ds, err := h.RunAudit(ctx)
	require.NoError(t, err)
	assert.Empty(t, ds)
}
