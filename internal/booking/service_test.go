package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/hotel-booking-calendar/internal/availability"
	"github.com/username/hotel-booking-calendar/internal/dashboard"
	"github.com/username/hotel-booking-calendar/internal/ledger"
	"github.com/username/hotel-booking-calendar/internal/monthview"
	"github.com/username/hotel-booking-calendar/internal/selection"
	"go.uber.org/zap/zaptest"
)

type failingSource struct{}

func (failingSource) Availability(context.Context, time.Time, time.Time) (*availability.Table, error) {
	return nil, errors.New("upstream down")
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := zaptest.NewLogger(t)
	rooms := []dashboard.Room{{ID: "r1", Number: "101"}, {ID: "r2", Number: "102"}}
	return NewService(testTable(), ledger.New("", logger), testConfig(), rooms, logger)
}

func reservation(room, in, out string) Reservation {
	rng, err := selection.NewDateRange(in, out)
	if err != nil {
		panic(err)
	}
	return Reservation{RoomID: room, GuestName: "Ann", Range: rng}
}

func TestService_Quote(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	result, err := s.Quote(ctx, "r1", reservation("r1", "2024-06-09", "2024-06-11").Range)
	require.NoError(t, err)
	require.Equal(t, selection.KindPriced, result.Kind)
	assert.Equal(t, 2, result.Calculation.Nights)

	result, err = s.Quote(ctx, "r1", reservation("r1", "2024-06-09", "").Range)
	require.NoError(t, err)
	assert.Equal(t, selection.KindIncomplete, result.Kind)

	_, err = s.Quote(ctx, "r9", reservation("r9", "2024-06-09", "2024-06-11").Range)
	require.ErrorIs(t, err, ErrUnknownRoom)
}

func TestService_BookBlocksNightsForThatRoomOnly(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	b, result, err := s.Book(ctx, reservation("r1", "2024-06-05", "2024-06-08"))
	require.NoError(t, err)
	assert.Equal(t, selection.KindPriced, result.Kind)
	assert.Equal(t, "2024-06-05", b.CheckIn)
	assert.True(t, b.TotalPrice.Equal(result.Calculation.TotalPrice))

	_, result, err = s.Book(ctx, reservation("r1", "2024-06-07", "2024-06-09"))
	require.ErrorIs(t, err, ErrNotBookable)
	require.Equal(t, selection.KindError, result.Kind)
	assert.Equal(t, selection.ErrorBlockedDatesInRange, result.Error.Kind)
	assert.Equal(t, []string{"2024-06-07"}, result.Error.Dates)

	_, _, err = s.Book(ctx, reservation("r2", "2024-06-07", "2024-06-09"))
	require.NoError(t, err)

	_, _, err = s.Book(ctx, reservation("r1", "2024-06-08", "2024-06-10"))
	require.NoError(t, err, "check-out day of the earlier stay is free")
}

func TestService_CancelFreesNights(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	b, _, err := s.Book(ctx, reservation("r1", "2024-06-05", "2024-06-08"))
	require.NoError(t, err)

	cancelled, err := s.Cancel(b.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCancelled, cancelled.Status)

	_, _, err = s.Book(ctx, reservation("r1", "2024-06-05", "2024-06-08"))
	require.NoError(t, err)
	assert.Len(t, s.Bookings(), 2)

	_, err = s.Cancel(uuid.New())
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestService_ConcurrentBookingsOfSameNights(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := s.Book(ctx, reservation("r1", "2024-06-20", "2024-06-23")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestService_SourceFailure(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s := NewService(failingSource{}, ledger.New("", logger), testConfig(), nil, logger)

	_, err := s.Quote(context.Background(), "any", reservation("any", "2024-06-09", "2024-06-11").Range)
	require.Error(t, err)
}

func TestService_MonthAndDashboard(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, _, err := s.Book(ctx, reservation("r1", "2024-06-05", "2024-06-08"))
	require.NoError(t, err)

	m, err := s.Month(ctx, "r1", 2024, time.June, monthview.Options{})
	require.NoError(t, err)

	disabled := make(map[string]bool)
	for _, d := range m.Days() {
		disabled[d.DateString] = d.IsDisabled
	}
	assert.True(t, disabled["2024-05-31"], "before configured today")
	assert.True(t, disabled["2024-06-06"], "booked")
	assert.False(t, disabled["2024-06-08"], "check-out day")
	assert.True(t, disabled["2024-06-12"], "blocked")

	grid := s.Dashboard(2024, time.June)
	require.Len(t, grid.Rows, 2)
	assert.Equal(t, "101", grid.Rows[0].Room.Number)
	assert.Equal(t, 3, grid.Rows[0].Occupied)
	require.NotNil(t, grid.Rows[0].Cells[4].Booking)
	assert.Equal(t, "101", grid.Rows[0].Cells[4].Booking.RoomNumber)
}

func TestService_RoomsFromLedger(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s := NewService(testTable(), ledger.New("", logger), testConfig(), nil, logger)

	_, _, err := s.Book(context.Background(), reservation("b", "2024-06-05", "2024-06-06"))
	require.NoError(t, err)
	_, _, err = s.Book(context.Background(), reservation("a", "2024-06-05", "2024-06-06"))
	require.NoError(t, err)

	assert.Equal(t, []dashboard.Room{{ID: "a", Number: "a"}, {ID: "b", Number: "b"}}, s.Rooms())
}

func TestService_ControllerCommitsToLedger(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	c, err := s.NewController(ctx, "r2", "Bob", date("2024-06-01"), date("2024-06-30"), DefaultOptions(), nil)
	require.NoError(t, err)

	c.ClickDate(date("2024-06-20"))
	c.ClickDate(date("2024-06-22"))
	_, err = c.BookNow()
	require.NoError(t, err)

	bookings := s.Bookings()
	require.Len(t, bookings, 1)
	assert.Equal(t, "r2", bookings[0].RoomID)
	assert.Equal(t, "Bob", bookings[0].GuestName)
	assert.Equal(t, "2024-06-22", bookings[0].CheckOut)
}

func TestService_ControllerBooksStayEndingWhenAnotherStarts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, _, err := s.Book(ctx, reservation("r1", "2024-06-20", "2024-06-23"))
	require.NoError(t, err)

	c, err := s.NewController(ctx, "r1", "Bob", date("2024-06-01"), date("2024-06-30"), DefaultOptions(), nil)
	require.NoError(t, err)

	require.True(t, c.ClickDate(date("2024-06-18")))
	require.True(t, c.ClickDate(date("2024-06-20")), "a booked night can still be the check-out date")
	require.Equal(t, selection.KindPriced, c.Result().Kind)

	_, err = c.BookNow()
	require.NoError(t, err)
	assert.Len(t, s.Bookings(), 2)
}
