package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/username/hotel-booking-calendar/pkg/dateutil"
)

// Frequency is the period a pattern repeats on
type Frequency int

const (
	Daily Frequency = iota + 1
	Weekly
	Monthly
	Yearly
)

// maxEmptyPeriods stops iteration when a pattern keeps producing nothing
const maxEmptyPeriods = 1000

var (
	// ErrInvalidPattern is returned by Validate
	ErrInvalidPattern = errors.New("invalid recurrence pattern")
	// ErrUnbounded is returned when a pattern has no end and no limit was given
	ErrUnbounded = errors.New("recurrence has no end date, occurrence count or limit")
)

var frequencyNames = map[Frequency]string{
	Daily:   "daily",
	Weekly:  "weekly",
	Monthly: "monthly",
	Yearly:  "yearly",
}

func (f Frequency) String() string {
	if name, ok := frequencyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// MarshalText implements encoding.TextMarshaler
func (f Frequency) MarshalText() ([]byte, error) {
	name, ok := frequencyNames[f]
	if !ok {
		return nil, fmt.Errorf("%w: frequency %d", ErrInvalidPattern, int(f))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Frequency) UnmarshalText(text []byte) error {
	for freq, name := range frequencyNames {
		if name == string(text) {
			*f = freq
			return nil
		}
	}
	return fmt.Errorf("%w: unknown frequency %q", ErrInvalidPattern, string(text))
}

// Pattern describes a repeating stay or block, e.g. every other Friday until year end.
type Pattern struct {
	Frequency Frequency `json:"frequency"`
	// Interval repeats every N periods; zero means 1
	Interval int `json:"interval,omitempty"`
	// EndDate is the last date that may occur (inclusive), YYYY-MM-DD
	EndDate             string `json:"endDate,omitempty"`
	EndAfterOccurrences int    `json:"endAfterOccurrences,omitempty"`
	// DaysOfWeek applies to weekly patterns, 0 = Sunday
	DaysOfWeek []int `json:"daysOfWeek,omitempty"`
	// DayOfMonth applies to monthly patterns; it is clamped to short months
	DayOfMonth int `json:"dayOfMonth,omitempty"`
}

// Validate checks the pattern's fields
func (p Pattern) Validate() error {
	if _, ok := frequencyNames[p.Frequency]; !ok {
		return fmt.Errorf("%w: frequency is required", ErrInvalidPattern)
	}
	if p.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidPattern)
	}
	if p.EndAfterOccurrences < 0 {
		return fmt.Errorf("%w: endAfterOccurrences must not be negative", ErrInvalidPattern)
	}
	if p.EndDate != "" {
		if _, err := dateutil.ParseISODate(p.EndDate); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
	}
	for _, d := range p.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: day of week %d out of range 0-6", ErrInvalidPattern, d)
		}
	}
	if len(p.DaysOfWeek) > 0 && p.Frequency != Weekly {
		return fmt.Errorf("%w: daysOfWeek requires weekly frequency", ErrInvalidPattern)
	}
	if p.DayOfMonth < 0 || p.DayOfMonth > 31 {
		return fmt.Errorf("%w: day of month %d out of range 1-31", ErrInvalidPattern, p.DayOfMonth)
	}
	if p.DayOfMonth > 0 && p.Frequency != Monthly {
		return fmt.Errorf("%w: dayOfMonth requires monthly frequency", ErrInvalidPattern)
	}
	return nil
}

// Bounded reports whether the pattern ends on its own
func (p Pattern) Bounded() bool {
	return p.EndDate != "" || p.EndAfterOccurrences > 0
}

func (p Pattern) interval() int {
	if p.Interval == 0 {
		return 1
	}
	return p.Interval
}

// Iterator yields the occurrences of a pattern in order. It is not safe for concurrent use.
type Iterator struct {
	start   time.Time
	pattern Pattern
	endDate time.Time
	weekday []time.Weekday

	period  int
	pending []time.Time
	emitted int
	done    bool
}

// NewIterator validates p and returns an iterator starting at start
func NewIterator(start time.Time, p Pattern) (*Iterator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	it := &Iterator{start: dateutil.StartOfDay(start), pattern: p}
	if p.EndDate != "" {
		it.endDate, _ = dateutil.ParseISODate(p.EndDate)
	}

	if p.Frequency == Weekly {
		seen := make(map[int]bool)
		for _, d := range p.DaysOfWeek {
			if !seen[d] {
				seen[d] = true
				it.weekday = append(it.weekday, time.Weekday(d))
			}
		}
		if len(it.weekday) == 0 {
			it.weekday = []time.Weekday{it.start.Weekday()}
		}
		sort.Slice(it.weekday, func(i, j int) bool { return it.weekday[i] < it.weekday[j] })
	}

	return it, nil
}

// Next returns the next occurrence, or false when the pattern is exhausted
func (it *Iterator) Next() (time.Time, bool) {
	if it.done {
		return time.Time{}, false
	}
	if n := it.pattern.EndAfterOccurrences; n > 0 && it.emitted >= n {
		it.done = true
		return time.Time{}, false
	}

	empty := 0
	for len(it.pending) == 0 {
		if empty >= maxEmptyPeriods {
			it.done = true
			return time.Time{}, false
		}
		it.pending = it.candidates(it.period)
		it.period++
		if len(it.pending) == 0 {
			empty++
		}
	}

	next := it.pending[0]
	it.pending = it.pending[1:]

	if !it.endDate.IsZero() && next.After(it.endDate) {
		it.done = true
		it.pending = nil
		return time.Time{}, false
	}

	it.emitted++
	return next, true
}

// Reset rewinds the iterator to the first occurrence
func (it *Iterator) Reset() {
	it.period = 0
	it.pending = nil
	it.emitted = 0
	it.done = false
}

// candidates returns the occurrences falling in period k, in order, none before start
func (it *Iterator) candidates(k int) []time.Time {
	step := k * it.pattern.interval()
	s := it.start

	var dates []time.Time
	switch it.pattern.Frequency {
	case Daily:
		dates = []time.Time{s.AddDate(0, 0, step)}

	case Weekly:
		weekStart := dateutil.StartOfWeek(s, time.Sunday).AddDate(0, 0, 7*step)
		for _, wd := range it.weekday {
			dates = append(dates, weekStart.AddDate(0, 0, int(wd)))
		}

	case Monthly:
		first := time.Date(s.Year(), s.Month()+time.Month(step), 1, 0, 0, 0, 0, time.UTC)
		day := it.pattern.DayOfMonth
		if day == 0 {
			day = s.Day()
		}
		dates = []time.Time{clampDay(first.Year(), first.Month(), day)}

	case Yearly:
		dates = []time.Time{clampDay(s.Year()+step, s.Month(), s.Day())}
	}

	out := dates[:0]
	for _, d := range dates {
		if !d.Before(s) {
			out = append(out, d)
		}
	}
	return out
}

func clampDay(year int, month time.Month, day int) time.Time {
	if last := dateutil.DaysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Expand returns the occurrences of p from start. limit caps the result when
// positive and is required for patterns without an end.
func Expand(start time.Time, p Pattern, limit int) ([]time.Time, error) {
	if !p.Bounded() && limit <= 0 {
		return nil, ErrUnbounded
	}

	it, err := NewIterator(start, p)
	if err != nil {
		return nil, err
	}

	var out []time.Time
	for limit <= 0 || len(out) < limit {
		d, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, d)
	}
	return out, nil
}
