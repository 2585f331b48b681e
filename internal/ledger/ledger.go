package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

// Status is the lifecycle state of a committed booking
type Status string

const (
	StatusConfirmed  Status = "confirmed"
	StatusPending    Status = "pending"
	StatusCancelled  Status = "cancelled"
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
	StatusNoShow     Status = "no-show"
)

var (
	// ErrOverlap is returned when a booking would share a night with an active booking of the same room
	ErrOverlap = errors.New("room already booked for these nights")
	// ErrNotFound is returned for unknown booking IDs
	ErrNotFound = errors.New("booking not found")
)

// Active reports whether bookings in this state occupy their room
func (s Status) Active() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// Booking is a committed reservation
type Booking struct {
	ID         uuid.UUID       `json:"id"`
	RoomID     string          `json:"roomId"`
	GuestName  string          `json:"guestName"`
	CheckIn    string          `json:"checkIn"`
	CheckOut   string          `json:"checkOut"`
	Status     Status          `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Currency   string          `json:"currency"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Nights returns the occupied dates [CheckIn, CheckOut). A same-day booking occupies its check-in date.
func (b Booking) Nights() []time.Time {
	in, err := dateutil.ParseISODate(b.CheckIn)
	if err != nil {
		return nil
	}
	out, err := dateutil.ParseISODate(b.CheckOut)
	if err != nil {
		return nil
	}
	if dateutil.NightsBetween(in, out) == 0 {
		return []time.Time{in}
	}
	return dateutil.EachDate(in, out)
}

func (b Booking) overlaps(other Booking) bool {
	if b.RoomID != other.RoomID || !b.Status.Active() || !other.Status.Active() {
		return false
	}
	nights := make(map[string]bool)
	for _, d := range b.Nights() {
		nights[dateutil.FormatISODate(d)] = true
	}
	for _, d := range other.Nights() {
		if nights[dateutil.FormatISODate(d)] {
			return true
		}
	}
	return false
}

type state struct {
	Bookings  []Booking `json:"bookings"`
	UpdatedAt string    `json:"updated_at"`
}

// Ledger stores committed bookings in a JSON file.
// An empty file path keeps bookings in memory only.
type Ledger struct {
	stateFile string
	mu        sync.RWMutex
	bookings  []Booking
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a new ledger
func New(stateFile string, logger *zap.Logger) *Ledger {
	return &Ledger{
		stateFile: stateFile,
		logger:    logger,
		now:       time.Now,
	}
}

// Load loads bookings from file
func (l *Ledger) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stateFile == "" {
		return nil
	}

	data, err := os.ReadFile(l.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet - will be created on first save
			l.bookings = nil
			return nil
		}
		return fmt.Errorf("failed to read ledger file: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to parse ledger file: %w", err)
	}

	l.bookings = st.Bookings
	l.logger.Info("Ledger loaded",
		zap.String("file", l.stateFile),
		zap.Int("bookings", len(st.Bookings)))

	return nil
}

// Save writes all bookings to file
func (l *Ledger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save()
}

// save writes the ledger; callers hold the write lock
func (l *Ledger) save() error {
	if l.stateFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(state{
		Bookings:  l.bookings,
		UpdatedAt: l.now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if dir := filepath.Dir(l.stateFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create ledger dir: %w", err)
		}
	}

	tmp := l.stateFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger file: %w", err)
	}
	if err := os.Rename(tmp, l.stateFile); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	l.logger.Debug("Ledger saved",
		zap.String("file", l.stateFile),
		zap.Int("bookings", len(l.bookings)))

	return nil
}

// Add commits a booking, assigning its ID and creation time
func (l *Ledger) Add(b Booking) (Booking, error) {
	if _, err := dateutil.ParseISODate(b.CheckIn); err != nil {
		return Booking{}, fmt.Errorf("check-in: %w", err)
	}
	if _, err := dateutil.ParseISODate(b.CheckOut); err != nil {
		return Booking{}, fmt.Errorf("check-out: %w", err)
	}

	if b.Status == "" {
		b.Status = StatusConfirmed
	}
	b.ID = uuid.New()
	b.CreatedAt = l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.bookings {
		if existing.overlaps(b) {
			return Booking{}, fmt.Errorf("%w: %s overlaps %s", ErrOverlap, b.RoomID, existing.ID)
		}
	}

	l.bookings = append(l.bookings, b)
	if err := l.save(); err != nil {
		l.bookings = l.bookings[:len(l.bookings)-1]
		return Booking{}, err
	}

	l.logger.Info("Booking committed",
		zap.String("id", b.ID.String()),
		zap.String("room", b.RoomID),
		zap.String("check_in", b.CheckIn),
		zap.String("check_out", b.CheckOut),
		zap.String("total", b.TotalPrice.String()))

	return b, nil
}

// SetStatus changes the status of a booking
func (l *Ledger) SetStatus(id uuid.UUID, status Status) (Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.bookings {
		if l.bookings[i].ID != id {
			continue
		}
		prev := l.bookings[i].Status
		l.bookings[i].Status = status
		if err := l.save(); err != nil {
			l.bookings[i].Status = prev
			return Booking{}, err
		}
		l.logger.Info("Booking status changed",
			zap.String("id", id.String()),
			zap.String("from", string(prev)),
			zap.String("to", string(status)))
		return l.bookings[i], nil
	}

	return Booking{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns all bookings ordered by check-in
func (l *Ledger) List() []Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Booking, len(l.bookings))
	copy(out, l.bookings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CheckIn < out[j].CheckIn
	})
	return out
}

// ForMonth returns bookings with at least one night in the given month
func (l *Ledger) ForMonth(year int, month time.Month) []Booking {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lo := dateutil.FormatISODate(first)
	hi := dateutil.FormatISODate(dateutil.EndOfMonth(first))

	var out []Booking
	for _, b := range l.List() {
		for _, d := range b.Nights() {
			key := dateutil.FormatISODate(d)
			if key >= lo && key <= hi {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// OccupiedNights returns the nights of active bookings for roomID within [from, to]
func (l *Ledger) OccupiedNights(roomID string, from, to time.Time) []time.Time {
	lo := dateutil.FormatISODate(from)
	hi := dateutil.FormatISODate(to)

	l.mu.RLock()
	defer l.mu.RUnlock()

	var nights []time.Time
	for _, b := range l.bookings {
		if b.RoomID != roomID || !b.Status.Active() {
			continue
		}
		for _, d := range b.Nights() {
			key := dateutil.FormatISODate(d)
			if key >= lo && key <= hi {
				nights = append(nights, d)
			}
		}
	}
	return nights
}
