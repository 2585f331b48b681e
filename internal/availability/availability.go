package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
)

// Status represents the bookability of a single calendar date
type Status int

const (
	StatusAvailable Status = iota + 1
	StatusBlocked
	StatusCheckoutOnly
)

var (
	// ErrDuplicateDate is returned when two records describe the same date
	ErrDuplicateDate = errors.New("duplicate availability date")
	// ErrInvalidRecord is returned for records that cannot be interpreted
	ErrInvalidRecord = errors.New("invalid availability record")
)

var statusNames = map[Status]string{
	StatusAvailable:    "available",
	StatusBlocked:      "blocked",
	StatusCheckoutOnly: "checkout-only",
}

// ParseStatus parses the wire name of a status
func ParseStatus(s string) (Status, error) {
	for status, name := range statusNames {
		if name == s {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, s)
}

// Valid reports whether s is one of the declared statuses
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidRecord, int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DateAvailability describes one calendar date: its status, nightly price and
// stay-length constraints that apply when a stay starts on that date.
type DateAvailability struct {
	Date    string           `json:"date" yaml:"date"`
	Status  Status           `json:"status" yaml:"status"`
	Price   *decimal.Decimal `json:"price,omitempty" yaml:"price,omitempty"`
	MinStay *int             `json:"minStay,omitempty" yaml:"minStay,omitempty"`
	MaxStay *int             `json:"maxStay,omitempty" yaml:"maxStay,omitempty"`
}

func (d DateAvailability) validate() error {
	if _, err := dateutil.ParseISODate(d.Date); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: %s has no status", ErrInvalidRecord, d.Date)
	}
	if d.Price != nil && d.Price.IsNegative() {
		return fmt.Errorf("%w: %s has negative price", ErrInvalidRecord, d.Date)
	}
	if d.MinStay != nil && *d.MinStay < 1 {
		return fmt.Errorf("%w: %s minStay must be positive", ErrInvalidRecord, d.Date)
	}
	if d.MaxStay != nil && *d.MaxStay < 1 {
		return fmt.Errorf("%w: %s maxStay must be positive", ErrInvalidRecord, d.Date)
	}
	if d.MinStay != nil && d.MaxStay != nil && *d.MinStay > *d.MaxStay {
		return fmt.Errorf("%w: %s minStay exceeds maxStay", ErrInvalidRecord, d.Date)
	}
	return nil
}

// Table is an immutable date-keyed availability lookup.
// A nil *Table is valid and treats every date as available.
type Table struct {
	byDate map[string]DateAvailability
}

// NewTable builds a table from records, rejecting duplicates and malformed entries
func NewTable(records []DateAvailability) (*Table, error) {
	t := &Table{byDate: make(map[string]DateAvailability, len(records))}
	for _, rec := range records {
		if err := rec.validate(); err != nil {
			return nil, err
		}
		if _, exists := t.byDate[rec.Date]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, rec.Date)
		}
		t.byDate[rec.Date] = rec
	}
	return t, nil
}

// MustTable is like NewTable but panics on error. Intended for fixtures.
func MustTable(records ...DateAvailability) *Table {
	t, err := NewTable(records)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the record for date, if one exists
func (t *Table) Lookup(date time.Time) (DateAvailability, bool) {
	if t == nil {
		return DateAvailability{}, false
	}
	rec, ok := t.byDate[dateutil.FormatISODate(date)]
	return rec, ok
}

// StatusOf returns the status of date; dates without a record are available
func (t *Table) StatusOf(date time.Time) Status {
	if rec, ok := t.Lookup(date); ok {
		return rec.Status
	}
	return StatusAvailable
}

// Len returns the number of records
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byDate)
}

// Records returns a copy of all records ordered by date
func (t *Table) Records() []DateAvailability {
	if t == nil {
		return nil
	}
	records := make([]DateAvailability, 0, len(t.byDate))
	for _, rec := range t.byDate {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})
	return records
}

// Window returns a table restricted to the inclusive date range [from, to]
func (t *Table) Window(from, to time.Time) *Table {
	lo := dateutil.FormatISODate(from)
	hi := dateutil.FormatISODate(to)

	w := &Table{byDate: make(map[string]DateAvailability)}
	if t == nil {
		return w
	}
	for key, rec := range t.byDate {
		if key >= lo && key <= hi {
			w.byDate[key] = rec
		}
	}
	return w
}

// WithStatus returns a copy of the table in which dates carry status.
// Existing prices and stay limits on those dates are kept.
func (t *Table) WithStatus(status Status, dates ...time.Time) *Table {
	out := &Table{byDate: make(map[string]DateAvailability, t.Len()+len(dates))}
	if t != nil {
		for key, rec := range t.byDate {
			out.byDate[key] = rec
		}
	}
	for _, d := range dates {
		key := dateutil.FormatISODate(d)
		rec, ok := out.byDate[key]
		if !ok {
			rec = DateAvailability{Date: key}
		}
		rec.Status = status
		out.byDate[key] = rec
	}
	return out
}

// Availability implements Source over an in-memory table
func (t *Table) Availability(_ context.Context, from, to time.Time) (*Table, error) {
	return t.Window(from, to), nil
}

// Source provides availability for an inclusive date window
type Source interface {
	// Availability returns the records between from and to (inclusive)
	Availability(ctx context.Context, from, to time.Time) (*Table, error)
}
