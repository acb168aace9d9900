package lifecycle

import (
	"context"

	"github.com/warp/agency-ledger/agency"
)

// =============================================================================
// SAMPLE AGENCY - Fixture used by the demo scenario and tests
// =============================================================================

// SampleClients returns the two fixture clients. Their booking counters
// reflect history that predates the ledger, so their wallets start at zero.
func SampleClients() []agency.Client {
	return []agency.Client{
		{
			ID:            "C001",
			Name:          "John Doe",
			Email:         "john.doe@example.com",
			Phone:         "111-222-3333",
			Address:       "123 Main St, Anytown",
			TotalBookings: 5,
		},
		{
			ID:            "C002",
			Name:          "Jane Smith",
			Email:         "jane.smith@example.com",
			Phone:         "444-555-6666",
			Address:       "456 Oak Ave, Somewhere",
			TotalBookings: 8,
		},
	}
}

// SampleBookings returns the fixture bookings in display order, most recent
// first.
func SampleBookings() []agency.Booking {
	return []agency.Booking{
		{
			ID: "B001", ServiceType: agency.ServiceFlight, Route: "NYC to LAX",
			ClientName: "John Doe", Status: agency.StatusConfirmed, Date: "2024-10-26",
			Travelers:     []string{"John Doe"},
			DepartureDate: "2024-11-01", ReturnDate: "2024-11-05", Price: "$450.00",
		},
		{
			ID: "B002", ServiceType: agency.ServiceHotel, Route: "Paris Hilton - Paris",
			ClientName: "Jane Smith", Status: agency.StatusPending, Date: "2024-11-15",
			Travelers:     []string{"Jane Smith", "Peter Smith"},
			DepartureDate: "2024-12-10", ReturnDate: "2024-12-15", Price: "$1200.00",
		},
		{
			ID: "B003", ServiceType: agency.ServicePackage, Route: "Bali Adventure",
			ClientName: "John Doe", Status: agency.StatusCompleted, Date: "2024-09-01",
			Travelers:     []string{"John Doe", "Alice Doe"},
			DepartureDate: "2024-09-10", ReturnDate: "2024-09-20", Price: "$2500.00",
		},
		{
			ID: "B004", ServiceType: agency.ServiceVisa, Route: "UK Application",
			ClientName: "Jane Smith", Status: agency.StatusSubmitted, Date: "2024-10-20",
			Travelers: []string{"Jane Smith"},
			Price:     "$150.00",
		},
		{
			ID: "B005", ServiceType: agency.ServiceFlight, Route: "LAX to HNL",
			ClientName: "John Doe", Status: agency.StatusCancelled, Date: "2024-10-10",
			Travelers:     []string{"John Doe"},
			DepartureDate: "2024-10-20", ReturnDate: "2024-10-25", Price: "$600.00",
		},
	}
}

// LoadSample imports the sample agency into c.
func LoadSample(ctx context.Context, c *Coordinator) error {
	return c.Import(ctx, SampleClients(), SampleBookings())
}
