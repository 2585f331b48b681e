package monthview

import (
	"time"

	"github.com/username/hotel-booking-calendar/internal/availability"
	"github.com/username/hotel-booking-calendar/internal/selection"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
)

const (
	weeksPerGrid = 6
	daysPerWeek  = 7
)

// Options describe what a rendered month should highlight
type Options struct {
	// Today defaults to the current UTC date
	Today            time.Time
	WeekStart        time.Weekday
	MinDate          time.Time
	MaxDate          time.Time
	DisablePastDates bool
	Selection        selection.DateRange
	Availability     *availability.Table
}

// Day is one cell of the month grid
type Day struct {
	Date            time.Time                      `json:"-"`
	DateString      string                         `json:"date"`
	Day             int                            `json:"day"`
	IsToday         bool                           `json:"isToday"`
	IsCurrentMonth  bool                           `json:"isCurrentMonth"`
	IsPreviousMonth bool                           `json:"isPreviousMonth"`
	IsNextMonth     bool                           `json:"isNextMonth"`
	IsDisabled      bool                           `json:"isDisabled"`
	IsCheckIn       bool                           `json:"isCheckIn"`
	IsCheckOut      bool                           `json:"isCheckOut"`
	InSelection     bool                           `json:"inSelection"`
	Availability    *availability.DateAvailability `json:"availability,omitempty"`
}

// Month is a fixed 6x7 grid covering the month plus leading and trailing days
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Weeks [][]Day    `json:"weeks"`
}

// GridBounds returns the first and last date shown for a month
func GridBounds(year int, month time.Month, weekStart time.Weekday) (time.Time, time.Time) {
	first := dateutil.StartOfWeek(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), weekStart)
	return first, first.AddDate(0, 0, weeksPerGrid*daysPerWeek-1)
}

// BuildMonth lays out the grid for year/month
func BuildMonth(year int, month time.Month, opts Options) Month {
	today := opts.Today
	if today.IsZero() {
		today = dateutil.Today()
	}
	today = dateutil.StartOfDay(today)

	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start, _ := GridBounds(year, month, opts.WeekStart)

	m := Month{Year: year, Month: month, Weeks: make([][]Day, weeksPerGrid)}
	for w := 0; w < weeksPerGrid; w++ {
		week := make([]Day, daysPerWeek)
		for d := 0; d < daysPerWeek; d++ {
			date := start.AddDate(0, 0, w*daysPerWeek+d)
			week[d] = buildDay(date, firstOfMonth, today, opts)
		}
		m.Weeks[w] = week
	}
	return m
}

func buildDay(date, firstOfMonth, today time.Time, opts Options) Day {
	day := Day{
		Date:            date,
		DateString:      dateutil.FormatISODate(date),
		Day:             date.Day(),
		IsToday:         dateutil.IsSameDay(date, today),
		IsCurrentMonth:  date.Month() == firstOfMonth.Month() && date.Year() == firstOfMonth.Year(),
		IsPreviousMonth: date.Before(firstOfMonth),
		IsNextMonth:     date.After(dateutil.EndOfMonth(firstOfMonth)),
	}

	if rec, ok := opts.Availability.Lookup(date); ok {
		day.Availability = &rec
	}

	switch {
	case opts.DisablePastDates && date.Before(today):
		day.IsDisabled = true
	case !opts.MinDate.IsZero() && date.Before(dateutil.StartOfDay(opts.MinDate)):
		day.IsDisabled = true
	case !opts.MaxDate.IsZero() && date.After(dateutil.StartOfDay(opts.MaxDate)):
		day.IsDisabled = true
	case opts.Availability.StatusOf(date) == availability.StatusBlocked:
		day.IsDisabled = !canCheckOut(date, opts)
	}

	sel := opts.Selection
	if sel.HasCheckIn() {
		checkIn := dateutil.StartOfDay(sel.CheckIn)
		day.IsCheckIn = dateutil.IsSameDay(date, checkIn)
		if sel.HasCheckOut() {
			checkOut := dateutil.StartOfDay(sel.CheckOut)
			day.IsCheckOut = dateutil.IsSameDay(date, checkOut)
			day.InSelection = !date.Before(checkIn) && !date.After(checkOut)
		}
	}

	return day
}

// canCheckOut reports whether date can close the pending selection: a check-in
// is chosen, date is after it and no night in between is blocked
func canCheckOut(date time.Time, opts Options) bool {
	sel := opts.Selection
	if !sel.HasCheckIn() || sel.HasCheckOut() {
		return false
	}
	checkIn := dateutil.StartOfDay(sel.CheckIn)
	if !date.After(checkIn) {
		return false
	}
	for _, night := range dateutil.EachDate(checkIn, date) {
		if opts.Availability.StatusOf(night) == availability.StatusBlocked {
			return false
		}
	}
	return true
}

// Days returns the grid flattened in display order
func (m Month) Days() []Day {
	days := make([]Day, 0, weeksPerGrid*daysPerWeek)
	for _, week := range m.Weeks {
		days = append(days, week...)
	}
	return days
}
