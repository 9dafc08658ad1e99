package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

func TestLedger_Reports(t *testing.T) {
	f := newFixture(t)
	jane, hallA := f.seed(t)
	ctx := context.Background()
	bob, err := f.ledger.RegisterClient(ctx, "Bob", "Stone")
	require.NoError(t, err)

	mk := func(client int64, offset int, shift model.Shift, name string) model.Reservation {
		t.Helper()
		r, err := f.ledger.CreateReservation(ctx, CreateReservationInput{
			ClientID: client, RoomID: hallA.ID, Date: f.day(offset), Shift: shift, EventName: name,
		})
		require.NoError(t, err)
		return r
	}
	// Tuesday start: offsets 3, 4 and 6 are Friday, Saturday and Monday.
	r1 := mk(jane.ID, 4, model.ShiftEvening, "Dinner")
	r2 := mk(bob.ID, 3, model.ShiftMorning, "Breakfast")
	r3 := mk(jane.ID, 4, model.ShiftMorning, "Brunch")
	r4 := mk(bob.ID, 6, model.ShiftAfternoon, "Tea")
	_, err = f.ledger.CancelReservation(ctx, r4.Folio)
	require.NoError(t, err)

	daily, err := f.ledger.ReportForDate(ctx, f.day(4))
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, r1.Folio, daily[0].Folio)
	assert.Equal(t, r3.Folio, daily[1].Folio)
	assert.Equal(t, model.ReportRow{
		Folio: r1.Folio, Date: f.day(4), ClientName: "Doe, Jane", RoomID: hallA.ID,
		RoomName: "Hall A", RoomCapacity: 10, Shift: model.ShiftEvening, EventName: "Dinner",
	}, daily[0])

	again, err := f.ledger.ReportForDate(ctx, f.day(4))
	require.NoError(t, err)
	assert.Equal(t, daily, again)

	ranged, err := f.ledger.ReportForRange(ctx, f.day(0), f.day(10))
	require.NoError(t, err)
	require.Len(t, ranged, 3)
	assert.Equal(t, []int64{r2.Folio, r1.Folio, r3.Folio}, []int64{ranged[0].Folio, ranged[1].Folio, ranged[2].Folio})

	cancelledDay, err := f.ledger.ReportForDate(ctx, f.day(6))
	require.NoError(t, err)
	assert.NotNil(t, cancelledDay)
	assert.Empty(t, cancelledDay)

	inclusive, err := f.ledger.ReportForRange(ctx, f.day(3), f.day(3))
	require.NoError(t, err)
	assert.Len(t, inclusive, 1)

	_, err = f.ledger.ReportForRange(ctx, f.day(5), f.day(4))
	assert.ErrorIs(t, err, model.ErrInvalidRange)

	f.store.FailOn("ReportRows", errors.New("disk full"))
	_, err = f.ledger.ReportForDate(ctx, f.day(4))
	assert.True(t, model.IsStorage(err))
}
