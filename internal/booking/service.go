package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/username/hotel-booking-calendar/internal/availability"
	"github.com/username/hotel-booking-calendar/internal/dashboard"
	"github.com/username/hotel-booking-calendar/internal/ledger"
	"github.com/username/hotel-booking-calendar/internal/monthview"
	"github.com/username/hotel-booking-calendar/internal/selection"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

// ErrUnknownRoom is returned for room IDs not present in the configured room list
var ErrUnknownRoom = errors.New("unknown room")

// Reservation is a guest's request to book a room for a range
type Reservation struct {
	RoomID    string              `json:"roomId"`
	GuestName string              `json:"guestName"`
	Range     selection.DateRange `json:"range"`
}

// Service joins availability, the booking ledger and the selection engine
type Service struct {
	source availability.Source
	ledger *ledger.Ledger
	config selection.Config
	rooms  []dashboard.Room
	logger *zap.Logger

	// bookMu serialises evaluate-then-commit
	bookMu sync.Mutex
}

// NewService creates a new booking service. An empty room list accepts any room ID.
func NewService(
	source availability.Source,
	bookings *ledger.Ledger,
	cfg selection.Config,
	rooms []dashboard.Room,
	logger *zap.Logger,
) *Service {
	return &Service{
		source: source,
		ledger: bookings,
		config: cfg,
		rooms:  rooms,
		logger: logger,
	}
}

// Config returns the selection settings used for evaluation
func (s *Service) Config() selection.Config {
	return s.config
}

// Rooms returns the configured rooms, or the rooms seen in the ledger when none are configured
func (s *Service) Rooms() []dashboard.Room {
	if len(s.rooms) > 0 {
		return s.rooms
	}

	seen := make(map[string]bool)
	var rooms []dashboard.Room
	for _, b := range s.ledger.List() {
		if !seen[b.RoomID] {
			seen[b.RoomID] = true
			rooms = append(rooms, dashboard.Room{ID: b.RoomID, Number: b.RoomID})
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

func (s *Service) checkRoom(roomID string) error {
	if len(s.rooms) == 0 {
		return nil
	}
	for _, r := range s.rooms {
		if r.ID == roomID {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownRoom, roomID)
}

// Availability returns the room's availability for [from, to] with booked nights marked blocked
func (s *Service) Availability(ctx context.Context, roomID string, from, to time.Time) (*availability.Table, error) {
	if err := s.checkRoom(roomID); err != nil {
		return nil, err
	}
	if to.Before(from) {
		from, to = to, from
	}

	table, err := s.source.Availability(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}

	booked := s.ledger.OccupiedNights(roomID, from, to)
	if len(booked) == 0 {
		return table, nil
	}

	s.logger.Debug("Booked nights overlaid on availability",
		zap.String("room", roomID),
		zap.Int("nights", len(booked)))

	return table.WithStatus(availability.StatusBlocked, booked...), nil
}

// Quote evaluates rng for a room
func (s *Service) Quote(ctx context.Context, roomID string, rng selection.DateRange) (selection.Result, error) {
	if !rng.HasCheckIn() || !rng.HasCheckOut() {
		if err := s.checkRoom(roomID); err != nil {
			return selection.Result{}, err
		}
		return selection.Evaluate(rng, nil, s.config), nil
	}

	table, err := s.Availability(ctx, roomID, rng.CheckIn, rng.CheckOut)
	if err != nil {
		return selection.Result{}, err
	}

	result := selection.Evaluate(rng, table, s.config)
	s.logger.Info("Selection evaluated",
		zap.String("room", roomID),
		zap.Stringer("range", rng),
		zap.Stringer("result", result.Kind))

	return result, nil
}

// Book evaluates the reservation and commits it to the ledger when it is priced.
// The evaluation is returned even when booking fails, so callers can show why.
func (s *Service) Book(ctx context.Context, r Reservation) (ledger.Booking, selection.Result, error) {
	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	result, err := s.Quote(ctx, r.RoomID, r.Range)
	if err != nil {
		return ledger.Booking{}, selection.Result{}, err
	}
	if !result.Bookable() {
		return ledger.Booking{}, result, fmt.Errorf("%w: %s", ErrNotBookable, result.Kind)
	}

	b, err := s.commit(r.RoomID, r.GuestName, Request{Selection: r.Range, Calculation: result.Calculation})
	if err != nil {
		return ledger.Booking{}, result, err
	}
	return b, result, nil
}

func (s *Service) commit(roomID, guest string, req Request) (ledger.Booking, error) {
	b, err := s.ledger.Add(ledger.Booking{
		RoomID:     roomID,
		GuestName:  guest,
		CheckIn:    dateutil.FormatISODate(req.Selection.CheckIn),
		CheckOut:   dateutil.FormatISODate(req.Selection.CheckOut),
		Status:     ledger.StatusConfirmed,
		TotalPrice: req.Calculation.TotalPrice,
		Currency:   req.Calculation.Currency,
	})
	if err != nil {
		return ledger.Booking{}, fmt.Errorf("failed to add booking: %w", err)
	}
	return b, nil
}

// Cancel marks a booking cancelled, freeing its nights
func (s *Service) Cancel(id uuid.UUID) (ledger.Booking, error) {
	return s.ledger.SetStatus(id, ledger.StatusCancelled)
}

// Bookings returns all committed bookings
func (s *Service) Bookings() []ledger.Booking {
	return s.ledger.List()
}

// Month builds the calendar grid for a room. Zero-valued date settings in opts
// are filled from the service configuration.
func (s *Service) Month(ctx context.Context, roomID string, year int, month time.Month, opts monthview.Options) (monthview.Month, error) {
	first, last := monthview.GridBounds(year, month, opts.WeekStart)

	table, err := s.Availability(ctx, roomID, first, last)
	if err != nil {
		return monthview.Month{}, err
	}

	opts.Availability = table
	if opts.Today.IsZero() {
		opts.Today = s.config.Today
	}
	if opts.MinDate.IsZero() {
		opts.MinDate = s.config.MinDate
	}
	if opts.MaxDate.IsZero() {
		opts.MaxDate = s.config.MaxDate
	}
	opts.DisablePastDates = opts.DisablePastDates || s.config.DisablePastDates

	return monthview.BuildMonth(year, month, opts), nil
}

// Dashboard builds the occupancy grid for all rooms
func (s *Service) Dashboard(year int, month time.Month) dashboard.Grid {
	rooms := s.Rooms()
	numbers := make(map[string]string, len(rooms))
	for _, r := range rooms {
		numbers[r.ID] = r.Number
	}

	var bookings []dashboard.Booking
	for _, b := range s.ledger.ForMonth(year, month) {
		number, ok := numbers[b.RoomID]
		if !ok {
			number = b.RoomID
		}
		bookings = append(bookings, dashboard.Booking{
			ID:         b.ID.String(),
			GuestName:  b.GuestName,
			RoomNumber: number,
			CheckIn:    b.CheckIn,
			CheckOut:   b.CheckOut,
			Status:     string(b.Status),
		})
	}

	return dashboard.BuildGrid(rooms, bookings, time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// NewController returns a click-driven controller for a room whose BookNow
// commits to the ledger under guest's name
func (s *Service) NewController(
	ctx context.Context,
	roomID, guest string,
	from, to time.Time,
	opts Options,
	notifier Notifier,
) (*Controller, error) {
	table, err := s.Availability(ctx, roomID, from, to)
	if err != nil {
		return nil, err
	}

	store := StoreFunc(func(req Request) error {
		_, err := s.commit(roomID, guest, req)
		return err
	})
	return NewController(table, s.config, opts, notifier, store), nil
}
