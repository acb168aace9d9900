package agency_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agency-ledger/agency"
	"github.com/warp/agency-ledger/agency/store"
)

func newTestDirectory() (*agency.ClientDirectory, *agency.Ledger) {
	ids := agency.NewIDGenerator(fixedClock)
	ledger := agency.NewLedger(store.NewMemory(), agency.WithLedgerClock(fixedClock), agency.WithLedgerIDs(ids))
	return agency.NewClientDirectory(ledger, ids), ledger
}

func TestClientDirectory_Register(t *testing.T) {
	// GIVEN: An empty directory
	d, ledger := newTestDirectory()
	ctx := context.Background()

	// WHEN: Registering a client
	c, err := d.Register(ctx, agency.Client{Name: "John Doe", Email: "john.doe@example.com"})
	require.NoError(t, err)

	// THEN: A wallet with zero balance is open
	assert.Equal(t, agency.PrefixClient, string(c.ID[:1]))
	assert.True(t, c.WalletBalance.IsZero())
	assert.Equal(t, 0, c.TotalBookings)
	_, err = ledger.BalanceOf(c.ID)
	assert.NoError(t, err)
}

func TestClientDirectory_Register_RequiresNameAndEmail(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()

	_, err := d.Register(ctx, agency.Client{Email: "x@example.com"})
	var verr *agency.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = d.Register(ctx, agency.Client{Name: "X"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	assert.Empty(t, d.List(ctx))
}

func TestClientDirectory_Update_KeepsDerivedFields(t *testing.T) {
	// GIVEN: A client with a booking and a deposit
	d, ledger := newTestDirectory()
	ctx := context.Background()
	c, _ := d.Register(ctx, agency.Client{ID: "C001", Name: "John Doe", Email: "john@example.com", TotalBookings: 5})
	_, err := ledger.Credit(ctx, c.ID, dec("200"), agency.ReferenceManualDeposit)
	require.NoError(t, err)

	// WHEN: Editing the contact details
	updated, err := d.Update(ctx, agency.Client{ID: c.ID, Name: "John Q. Doe", Email: "jq@example.com", Phone: "555"})
	require.NoError(t, err)

	// THEN: Counter and balance are untouched
	assert.Equal(t, "John Q. Doe", updated.Name)
	assert.Equal(t, "555", updated.Phone)
	assert.Equal(t, 5, updated.TotalBookings)
	assert.True(t, updated.WalletBalance.Equal(dec("200")))
}

func TestClientDirectory_Update_Unknown(t *testing.T) {
	d, _ := newTestDirectory()

	_, err := d.Update(context.Background(), agency.Client{ID: "C404", Name: "A", Email: "a@b"})
	assert.ErrorIs(t, err, agency.ErrUnknownClient)
}

func TestClientDirectory_FindByName_FirstExactMatch(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()
	first, _ := d.Register(ctx, agency.Client{Name: "John Doe", Email: "one@example.com"})
	_, _ = d.Register(ctx, agency.Client{Name: "John Doe", Email: "two@example.com"})

	got, ok := d.FindByName(ctx, "John Doe")
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)

	_, ok = d.FindByName(ctx, "john doe")
	assert.False(t, ok)
}

func TestClientDirectory_RecordBooking(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()
	c, _ := d.Register(ctx, agency.Client{Name: "Jane Smith", Email: "jane@example.com", TotalBookings: 8})

	n, err := d.RecordBooking(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	_, err = d.RecordBooking(ctx, "C404")
	assert.True(t, agency.IsNotFound(err))
}

func TestClientDirectory_Register_DuplicateID(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()
	_, err := d.Register(ctx, agency.Client{ID: "C001", Name: "John Doe", Email: "a@b"})
	require.NoError(t, err)

	_, err = d.Register(ctx, agency.Client{ID: "C001", Name: "Other", Email: "c@d"})
	assert.ErrorIs(t, err, agency.ErrDuplicateID)
}
