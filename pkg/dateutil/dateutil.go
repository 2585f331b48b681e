package dateutil

import (
	"fmt"
	"time"
)

// ISODate is the layout used for calendar dates on the wire and as map keys
const ISODate = "2006-01-02"

// StartOfDay returns the calendar date of t as 00:00 UTC.
// The wall-clock date in t's own location is kept, so 23:30+03:00 stays on the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns the first day of the month for the given date
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of the month for the given date
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfWeek returns the first day of the week containing date.
// weekStart selects which weekday opens the week (time.Monday for ISO, time.Sunday for US).
func StartOfWeek(date time.Time, weekStart time.Weekday) time.Time {
	offset := (int(date.Weekday()) - int(weekStart) + 7) % 7
	return StartOfDay(date).AddDate(0, 0, -offset)
}

// NightsBetween returns the number of calendar days from checkIn to checkOut.
// Negative when checkOut is before checkIn.
func NightsBetween(checkIn, checkOut time.Time) int {
	from := StartOfDay(checkIn)
	to := StartOfDay(checkOut)
	return int(to.Sub(from).Hours() / 24)
}

// EachDate returns every calendar date in the half-open interval [from, to)
func EachDate(from, to time.Time) []time.Time {
	n := NightsBetween(from, to)
	if n <= 0 {
		return nil
	}

	start := StartOfDay(from)
	dates := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, start.AddDate(0, 0, i))
	}
	return dates
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// FormatISODate formats date as YYYY-MM-DD
func FormatISODate(date time.Time) string {
	return date.Format(ISODate)
}

// ParseISODate parses a strict YYYY-MM-DD string into a UTC calendar date
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseMonth parses YYYY-MM into the first day of that month
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return t, nil
}

// Today returns today's date (start of day, UTC)
func Today() time.Time {
	return StartOfDay(time.Now())
}
