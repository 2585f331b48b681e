package selection

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/hotel-booking-calendar/internal/availability"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
)

// Config carries the per-calendar settings that influence validation and pricing
type Config struct {
	BasePrice        decimal.Decimal
	Currency         string
	AllowSingleDay   bool
	DisablePastDates bool
	// Today is the reference date for DisablePastDates. Zero means the current UTC date.
	Today time.Time
	// MinDate and MaxDate bound selectable dates when non-zero (inclusive).
	MinDate     time.Time
	MaxDate     time.Time
	Adjustments Adjustments
}

func (c Config) today() time.Time {
	if c.Today.IsZero() {
		return dateutil.Today()
	}
	return dateutil.StartOfDay(c.Today)
}

// Evaluate validates rng against the availability table and prices it.
//
// Rules are applied in a fixed order and the first violation is reported:
// invalid range, blocked dates, checkout-only dates, minimum stay, maximum stay.
// A range without a check-out is incomplete regardless of availability.
//
// A single-day stay (AllowSingleDay with CheckIn == CheckOut) is treated as one
// night on the check-in date for validation and pricing.
func Evaluate(rng DateRange, table *availability.Table, cfg Config) Result {
	if !rng.HasCheckOut() {
		return Incomplete()
	}

	if err := checkRange(rng, cfg); err != nil {
		return Rejected(err)
	}

	checkIn := dateutil.StartOfDay(rng.CheckIn)
	stay := stayDates(rng)

	if blocked := datesWithStatus(stay, table, availability.StatusBlocked); len(blocked) > 0 {
		return Rejected(&SelectionError{
			Kind:    ErrorBlockedDatesInRange,
			Message: fmt.Sprintf("Selected dates include unavailable nights: %s", strings.Join(blocked, ", ")),
			Dates:   blocked,
		})
	}

	if checkoutOnly := datesWithStatus(stay, table, availability.StatusCheckoutOnly); len(checkoutOnly) > 0 {
		return Rejected(&SelectionError{
			Kind:    ErrorCheckoutOnlyInRange,
			Message: fmt.Sprintf("Check-out only dates cannot be stayed: %s", strings.Join(checkoutOnly, ", ")),
			Dates:   checkoutOnly,
		})
	}

	nights := len(stay)
	if rec, ok := table.Lookup(checkIn); ok {
		if rec.MinStay != nil && nights < *rec.MinStay {
			return Rejected(&SelectionError{
				Kind:    ErrorMinStayNotMet,
				Message: fmt.Sprintf("Minimum stay from %s is %d nights, selected %d", rec.Date, *rec.MinStay, nights),
			})
		}
		if rec.MaxStay != nil && nights > *rec.MaxStay {
			return Rejected(&SelectionError{
				Kind:    ErrorMaxStayExceeded,
				Message: fmt.Sprintf("Maximum stay from %s is %d nights, selected %d", rec.Date, *rec.MaxStay, nights),
			})
		}
	}

	return Priced(price(stay, table, cfg))
}

// checkRange applies the invalid-range rule
func checkRange(rng DateRange, cfg Config) *SelectionError {
	if !rng.HasCheckIn() {
		return invalidRange("Check-out date selected without a check-in date")
	}

	checkIn := dateutil.StartOfDay(rng.CheckIn)
	checkOut := dateutil.StartOfDay(rng.CheckOut)

	switch nights := dateutil.NightsBetween(checkIn, checkOut); {
	case nights < 0:
		return invalidRange("Check-out date must be after check-in date")
	case nights == 0 && !cfg.AllowSingleDay:
		return invalidRange("Check-out date must be after check-in date")
	}

	if cfg.DisablePastDates {
		today := cfg.today()
		if checkIn.Before(today) || checkOut.Before(today) {
			return invalidRange("Dates in the past cannot be selected")
		}
	}

	if !cfg.MinDate.IsZero() && checkIn.Before(dateutil.StartOfDay(cfg.MinDate)) {
		return invalidRange(fmt.Sprintf("Check-in cannot be earlier than %s", dateutil.FormatISODate(cfg.MinDate)))
	}
	if !cfg.MaxDate.IsZero() && checkOut.After(dateutil.StartOfDay(cfg.MaxDate)) {
		return invalidRange(fmt.Sprintf("Check-out cannot be later than %s", dateutil.FormatISODate(cfg.MaxDate)))
	}

	return nil
}

func invalidRange(msg string) *SelectionError {
	return &SelectionError{Kind: ErrorInvalidRange, Message: msg}
}

// stayDates returns the nights of the stay: [CheckIn, CheckOut), or just
// CheckIn for a single-day stay.
func stayDates(rng DateRange) []time.Time {
	if dateutil.NightsBetween(rng.CheckIn, rng.CheckOut) == 0 {
		return []time.Time{dateutil.StartOfDay(rng.CheckIn)}
	}
	return dateutil.EachDate(rng.CheckIn, rng.CheckOut)
}

func datesWithStatus(dates []time.Time, table *availability.Table, status availability.Status) []string {
	var matched []string
	for _, d := range dates {
		if table.StatusOf(d) == status {
			matched = append(matched, dateutil.FormatISODate(d))
		}
	}
	return matched
}
