package agency_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agency-ledger/agency"
)

func newTestBookingStore() *agency.BookingStore {
	return agency.NewBookingStore(fixedClock, agency.NewIDGenerator(fixedClock))
}

func flight(client, route string) agency.Booking {
	return agency.Booking{
		ServiceType: agency.ServiceFlight,
		Route:       route,
		ClientName:  client,
		Travelers:   []string{client},
		Price:       "$450.00",
	}
}

func TestBookingStore_Create_Defaults(t *testing.T) {
	// GIVEN: A booking with no id, status or date
	s := newTestBookingStore()
	ctx := context.Background()

	// WHEN: Creating it
	id, err := s.Create(ctx, flight("John Doe", "NYC to LAX"))
	require.NoError(t, err)

	// THEN: It is Pending, dated today, with a generated booking id
	b, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(id), agency.PrefixBooking))
	assert.Equal(t, agency.StatusPending, b.Status)
	assert.Equal(t, "2024-11-20", b.Date)
	assert.Equal(t, 1, b.TravelerCount())
}

func TestBookingStore_Create_Invalid(t *testing.T) {
	s := newTestBookingStore()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*agency.Booking)
	}{
		{"unknown service type", func(b *agency.Booking) { b.ServiceType = "Cruise" }},
		{"unknown status", func(b *agency.Booking) { b.Status = "Archived" }},
		{"missing client", func(b *agency.Booking) { b.ClientName = " " }},
		{"missing route", func(b *agency.Booking) { b.Route = "" }},
		{"bad departure date", func(b *agency.Booking) { b.DepartureDate = "11/01/2024" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := flight("John Doe", "NYC to LAX")
			tt.mutate(&b)

			_, err := s.Create(ctx, b)
			assert.True(t, agency.IsValidation(err), "got %v", err)
		})
	}
	assert.Empty(t, s.List(ctx))
}

func TestBookingStore_Create_DuplicateID(t *testing.T) {
	s := newTestBookingStore()
	ctx := context.Background()
	b := flight("John Doe", "NYC to LAX")
	b.ID = "B001"

	_, err := s.Create(ctx, b)
	require.NoError(t, err)
	_, err = s.Create(ctx, b)
	assert.ErrorIs(t, err, agency.ErrDuplicateID)
}

func TestBookingStore_SetStatus_AnyTransitionAllowed(t *testing.T) {
	// GIVEN: A cancelled booking
	s := newTestBookingStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, flight("John Doe", "NYC to LAX"))
	require.NoError(t, s.Cancel(ctx, id))

	// WHEN/THEN: Every status is reachable, including back to Pending
	for _, st := range agency.Statuses {
		require.NoError(t, s.SetStatus(ctx, id, st))
		b, _ := s.Get(ctx, id)
		assert.Equal(t, st, b.Status)
	}
	require.NoError(t, s.SetStatus(ctx, id, agency.StatusPending))
}

func TestBookingStore_SetStatus_Errors(t *testing.T) {
	s := newTestBookingStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, flight("John Doe", "NYC to LAX"))

	err := s.SetStatus(ctx, "B404", agency.StatusConfirmed)
	assert.ErrorIs(t, err, agency.ErrUnknownBooking)

	err = s.SetStatus(ctx, id, agency.StatusAll)
	assert.True(t, agency.IsValidation(err))
}

func TestBookingStore_List_MostRecentFirst(t *testing.T) {
	s := newTestBookingStore()
	ctx := context.Background()
	first, _ := s.Create(ctx, flight("John Doe", "NYC to LAX"))
	second, _ := s.Create(ctx, flight("Jane Smith", "LAX to HNL"))
	third, _ := s.Create(ctx, flight("John Doe", "HNL to NYC"))

	list := s.List(ctx)

	require.Len(t, list, 3)
	assert.Equal(t, []agency.BookingID{third, second, first}, []agency.BookingID{list[0].ID, list[1].ID, list[2].ID})

	byJohn := s.ByClientName(ctx, "John Doe")
	require.Len(t, byJohn, 2)
	assert.Equal(t, third, byJohn[0].ID)
	assert.Empty(t, s.ByClientName(ctx, "john doe"))
}

func TestBookingStore_Get_ReturnsCopy(t *testing.T) {
	s := newTestBookingStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, flight("John Doe", "NYC to LAX"))

	b, _ := s.Get(ctx, id)
	b.Travelers[0] = "Mallory"

	again, _ := s.Get(ctx, id)
	assert.Equal(t, "John Doe", again.Travelers[0])
}
