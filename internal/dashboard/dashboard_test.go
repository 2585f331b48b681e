package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGrid(t *testing.T) {
	rooms := []Room{{ID: "r1", Number: "101"}, {ID: "r2", Number: "102"}}
	bookings := []Booking{
		{ID: "b1", GuestName: "Ann", RoomNumber: "101", CheckIn: "2024-05-30", CheckOut: "2024-06-03", Status: "confirmed"},
		{ID: "b2", GuestName: "Bob", RoomNumber: "101", CheckIn: "2024-06-10", CheckOut: "2024-06-12", Status: "checked-in"},
		{ID: "b3", GuestName: "Cid", RoomNumber: "102", CheckIn: "2024-06-10", CheckOut: "2024-06-12", Status: "cancelled"},
		{ID: "b4", GuestName: "Dee", RoomNumber: "102", CheckIn: "2024-06-29", CheckOut: "2024-07-02", Status: "pending"},
		{ID: "b5", GuestName: "Eve", RoomNumber: "999", CheckIn: "2024-06-01", CheckOut: "2024-06-05", Status: "confirmed"},
	}

	g := BuildGrid(rooms, bookings, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 2024, g.Year)
	assert.Equal(t, time.June, g.Month)
	require.Len(t, g.Dates, 30)
	require.Len(t, g.Rows, 2)

	r101 := g.Rows[0]
	require.NotNil(t, r101.Cells[0].Booking, "clipped at month start")
	assert.Equal(t, "b1", r101.Cells[0].Booking.ID)
	assert.True(t, r101.Cells[0].IsStart)
	assert.Equal(t, 2, r101.Cells[0].Span)
	assert.True(t, r101.Cells[1].IsEnd)
	assert.Nil(t, r101.Cells[2].Booking, "check-out day is free")

	assert.True(t, r101.Cells[9].IsStart)
	assert.Equal(t, "b2", r101.Cells[9].Booking.ID)
	assert.Equal(t, 4, r101.Occupied)

	r102 := g.Rows[1]
	assert.Nil(t, r102.Cells[9].Booking, "cancelled bookings are skipped")
	require.NotNil(t, r102.Cells[28].Booking, "clipped at month end")
	assert.Equal(t, 2, r102.Cells[28].Span)
	assert.True(t, r102.Cells[29].IsEnd)
	assert.Equal(t, 2, r102.Occupied)

	assert.InDelta(t, 6.0/60.0, g.Occupancy, 1e-9)
}

func TestBuildGrid_SkipsReleasedBookings(t *testing.T) {
	rooms := []Room{{ID: "r1", Number: "101"}}
	bookings := []Booking{
		{ID: "gone", RoomNumber: "101", CheckIn: "2024-06-03", CheckOut: "2024-06-05", Status: string(StatusNoShow)},
		{ID: "off", RoomNumber: "101", CheckIn: "2024-06-07", CheckOut: "2024-06-08", Status: string(StatusCancelled)},
		{ID: "out", RoomNumber: "101", CheckIn: "2024-06-10", CheckOut: "2024-06-11", Status: string(StatusCheckedOut)},
	}

	row := BuildGrid(rooms, bookings, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)).Rows[0]

	assert.Nil(t, row.Cells[2].Booking, "no-show releases its nights")
	assert.Nil(t, row.Cells[6].Booking)
	require.NotNil(t, row.Cells[9].Booking)
	assert.Equal(t, 1, row.Occupied)
}

func TestBookingStatus_Occupies(t *testing.T) {
	tests := []struct {
		status BookingStatus
		want   bool
	}{
		{StatusConfirmed, true},
		{StatusPending, true},
		{StatusCheckedIn, true},
		{StatusCheckedOut, true},
		{StatusCancelled, false},
		{StatusNoShow, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Occupies())
		})
	}
}

func TestBuildGrid_OverlapKeepsEarlierBooking(t *testing.T) {
	rooms := []Room{{ID: "r1", Number: "101"}}
	bookings := []Booking{
		{ID: "late", RoomNumber: "101", CheckIn: "2024-06-11", CheckOut: "2024-06-14", Status: "confirmed"},
		{ID: "early", RoomNumber: "101", CheckIn: "2024-06-10", CheckOut: "2024-06-12", Status: "confirmed"},
	}

	row := BuildGrid(rooms, bookings, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)).Rows[0]

	assert.Equal(t, "early", row.Cells[10].Booking.ID)
	assert.Equal(t, "late", row.Cells[11].Booking.ID)
	assert.True(t, row.Cells[11].IsStart)
	assert.Equal(t, 2, row.Cells[11].Span)
	assert.Equal(t, 4, row.Occupied)
}

func TestBuildGrid_NoRooms(t *testing.T) {
	g := BuildGrid(nil, nil, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.Len(t, g.Dates, 29)
	assert.Empty(t, g.Rows)
	assert.Zero(t, g.Occupancy)
}

func TestStatusConfigFor(t *testing.T) {
	configs := DefaultStatusConfigs()
	assert.Len(t, configs, 6)
	assert.Equal(t, "Checked in", StatusConfigFor(configs, "checked-in").Label)
	assert.Equal(t, "pending", StatusConfigFor(configs, "unknown").Key)
	assert.Equal(t, "x", StatusConfigFor(nil, "x").Label)
}
