package selection

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
)

// DateRange is a guest's in-progress or completed selection.
// A zero time means the endpoint has not been chosen yet.
// CheckOut is exclusive: the guest does not stay the night of CheckOut.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewDateRange parses YYYY-MM-DD endpoints; an empty string leaves the endpoint unset
func NewDateRange(checkIn, checkOut string) (DateRange, error) {
	var r DateRange
	var err error
	if checkIn != "" {
		if r.CheckIn, err = dateutil.ParseISODate(checkIn); err != nil {
			return DateRange{}, fmt.Errorf("check-in: %w", err)
		}
	}
	if checkOut != "" {
		if r.CheckOut, err = dateutil.ParseISODate(checkOut); err != nil {
			return DateRange{}, fmt.Errorf("check-out: %w", err)
		}
	}
	return r, nil
}

// HasCheckIn reports whether a check-in date is set
func (r DateRange) HasCheckIn() bool { return !r.CheckIn.IsZero() }

// HasCheckOut reports whether a check-out date is set
func (r DateRange) HasCheckOut() bool { return !r.CheckOut.IsZero() }

// IsEmpty reports whether neither endpoint is set
func (r DateRange) IsEmpty() bool { return !r.HasCheckIn() && !r.HasCheckOut() }

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", isoOrDash(r.CheckIn), isoOrDash(r.CheckOut))
}

func isoOrDash(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return dateutil.FormatISODate(t)
}

type dateRangeJSON struct {
	CheckIn  *string `json:"checkIn"`
	CheckOut *string `json:"checkOut"`
}

// MarshalJSON encodes unset endpoints as null
func (r DateRange) MarshalJSON() ([]byte, error) {
	var out dateRangeJSON
	if r.HasCheckIn() {
		s := dateutil.FormatISODate(r.CheckIn)
		out.CheckIn = &s
	}
	if r.HasCheckOut() {
		s := dateutil.FormatISODate(r.CheckOut)
		out.CheckOut = &s
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts YYYY-MM-DD strings or null for each endpoint
func (r *DateRange) UnmarshalJSON(data []byte) error {
	var in dateRangeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var checkIn, checkOut string
	if in.CheckIn != nil {
		checkIn = *in.CheckIn
	}
	if in.CheckOut != nil {
		checkOut = *in.CheckOut
	}
	parsed, err := NewDateRange(checkIn, checkOut)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ErrorKind identifies which selection rule a range violated
type ErrorKind int

const (
	ErrorInvalidRange ErrorKind = iota + 1
	ErrorBlockedDatesInRange
	ErrorCheckoutOnlyInRange
	ErrorMinStayNotMet
	ErrorMaxStayExceeded
)

var errorKindNames = map[ErrorKind]string{
	ErrorInvalidRange:        "invalid-range",
	ErrorBlockedDatesInRange: "blocked-dates-in-range",
	ErrorCheckoutOnlyInRange: "checkout-only-in-range",
	ErrorMinStayNotMet:       "min-stay-not-met",
	ErrorMaxStayExceeded:     "max-stay-exceeded",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k ErrorKind) MarshalText() ([]byte, error) {
	name, ok := errorKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown error kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for kind, name := range errorKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", string(text))
}

// SelectionError describes why a range cannot be booked.
// Dates lists the offending dates for blocked and checkout-only violations.
type SelectionError struct {
	Kind    ErrorKind `json:"type"`
	Message string    `json:"message"`
	Dates   []string  `json:"blockedDates,omitempty"`
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// DailyPrice is the charge for one night
type DailyPrice struct {
	Date  string          `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// PriceCalculation is the price breakdown of a valid range
type PriceCalculation struct {
	BasePrice       decimal.Decimal  `json:"basePrice"`
	Nights          int              `json:"nights"`
	DailyPrices     []DailyPrice     `json:"dailyPrices"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	TaxesAndFees    *decimal.Decimal `json:"taxesAndFees,omitempty"`
	Discounts       *decimal.Decimal `json:"discounts,omitempty"`
	TotalPrice      decimal.Decimal  `json:"totalPrice"`
	Currency        string           `json:"currency"`
	AveragePerNight decimal.Decimal  `json:"averagePerNight"`
}

// Kind discriminates the three possible evaluation outcomes
type Kind int

const (
	// KindIncomplete means no check-out has been chosen yet
	KindIncomplete Kind = iota
	// KindError means the range violates a rule; Result.Error is set
	KindError
	// KindPriced means the range is bookable; Result.Calculation is set
	KindPriced
)

var kindNames = map[Kind]string{
	KindIncomplete: "incomplete",
	KindError:      "error",
	KindPriced:     "priced",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown result kind %q", string(text))
}

// Result is the outcome of Evaluate. Error and Calculation are mutually exclusive
// and only populated for KindError and KindPriced respectively.
type Result struct {
	Kind        Kind              `json:"kind"`
	Error       *SelectionError   `json:"error,omitempty"`
	Calculation *PriceCalculation `json:"calculation,omitempty"`
}

// Incomplete returns the result for a selection still in progress
func Incomplete() Result {
	return Result{Kind: KindIncomplete}
}

// Rejected wraps a selection error into a result
func Rejected(err *SelectionError) Result {
	return Result{Kind: KindError, Error: err}
}

// Priced wraps a price calculation into a result
func Priced(calc *PriceCalculation) Result {
	return Result{Kind: KindPriced, Calculation: calc}
}

// Bookable reports whether the range can be committed
func (r Result) Bookable() bool {
	return r.Kind == KindPriced && r.Calculation != nil
}
