/*
bookings.go - Booking store with free status transitions

PURPOSE:
  Owns every Booking record. Bookings are created once and afterwards only
  their status changes. Cancellation is a status, not a deletion.

STATE MACHINE:
  Pending is the initial status. There is no transition table: any status is
  reachable from any other through SetStatus. Cancelled is terminal in
  practice only. Keep this permissive unless a product decision says
  otherwise.

ORDERING CONTRACT:
  List returns bookings most recently created first (reverse insertion
  order). Query results preserve this order.

SIDE EFFECTS:
  None beyond the store itself. Settlement debits and client counters belong
  to the lifecycle coordinator.

SEE ALSO:
  - lifecycle/coordinator.go: Creates bookings with settlement
  - query/filter.go: Filters the List view
*/
package agency

import (
	"context"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// BOOKING STORE
// =============================================================================

type BookingStore struct {
	clock Clock
	ids   *IDGenerator

	mu    sync.RWMutex
	order []BookingID // insertion order
	byID  map[BookingID]*Booking
}

func NewBookingStore(clock Clock, ids *IDGenerator) *BookingStore {
	if clock == nil {
		clock = time.Now
	}
	if ids == nil {
		ids = NewIDGenerator(clock)
	}
	return &BookingStore{
		clock: clock,
		ids:   ids,
		byID:  make(map[BookingID]*Booking),
	}
}

// Create stores a booking and returns its id.
//
// Defaults: a fresh "B" id when ID is empty, Pending when Status is empty,
// today's date when Date is empty. An explicit status is honoured so imported
// records keep theirs.
func (s *BookingStore) Create(_ context.Context, b Booking) (BookingID, error) {
	if b.Status == "" {
		b.Status = StatusPending
	}
	if err := validateBooking(b); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = BookingID(s.ids.New(PrefixBooking))
	}
	if _, exists := s.byID[b.ID]; exists {
		return "", ErrDuplicateID
	}
	if b.Date == "" {
		b.Date = s.clock().Format(DateLayout)
	}

	stored := b.clone()
	s.byID[b.ID] = &stored
	s.order = append(s.order, b.ID)
	return b.ID, nil
}

// SetStatus overwrites the status of a booking. Every transition is allowed.
func (s *BookingStore) SetStatus(_ context.Context, id BookingID, status Status) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown booking status " + string(status)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return unknownBooking(id)
	}
	b.Status = status
	return nil
}

// Cancel sets the booking to Cancelled. Confirmation is the caller's job.
func (s *BookingStore) Cancel(ctx context.Context, id BookingID) error {
	return s.SetStatus(ctx, id, StatusCancelled)
}

// Get returns the booking with id, or a NotFoundError wrapping ErrUnknownBooking.
func (s *BookingStore) Get(_ context.Context, id BookingID) (Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byID[id]
	if !ok {
		return Booking{}, unknownBooking(id)
	}
	return b.clone(), nil
}

// List returns all bookings, most recently created first.
func (s *BookingStore) List(_ context.Context) []Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Booking, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.byID[s.order[i]].clone())
	}
	return out
}

// ByClientName returns the bookings whose client-name field equals name
// exactly, most recently created first.
func (s *BookingStore) ByClientName(ctx context.Context, name string) []Booking {
	var out []Booking
	for _, b := range s.List(ctx) {
		if b.ClientName == name {
			out = append(out, b)
		}
	}
	return out
}

func validateBooking(b Booking) error {
	if !b.ServiceType.Valid() {
		return &ValidationError{Field: "serviceType", Message: "unknown service type " + string(b.ServiceType)}
	}
	if !b.Status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown booking status " + string(b.Status)}
	}
	if strings.TrimSpace(b.ClientName) == "" {
		return Required("client")
	}
	if strings.TrimSpace(b.Route) == "" {
		return Required("route")
	}
	dates := []struct{ field, value string }{
		{"date", b.Date},
		{"departureDate", b.DepartureDate},
		{"returnDate", b.ReturnDate},
	}
	for _, d := range dates {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d.value); err != nil {
			return &ValidationError{Field: d.field, Message: "must be a YYYY-MM-DD date"}
		}
	}
	return nil
}
