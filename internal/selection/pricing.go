package selection

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/hotel-booking-calendar/internal/availability"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
)

// moneyPlaces is the number of decimal places kept for derived amounts
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Adjustments are optional charges and reductions applied on top of the nightly subtotal.
// The zero value applies nothing, so TotalPrice equals the sum of nightly prices.
type Adjustments struct {
	// TaxPercent is charged on the subtotal, e.g. 12.5 for 12.5%
	TaxPercent decimal.Decimal
	// ServiceFee is a flat amount per booking
	ServiceFee decimal.Decimal
	// LongStay discounts the subtotal for stays of at least MinNights
	LongStay *LongStayDiscount
}

// LongStayDiscount is a percentage off the subtotal for long stays
type LongStayDiscount struct {
	MinNights int
	Percent   decimal.Decimal
}

func (a Adjustments) taxesAndFees(subtotal decimal.Decimal) decimal.Decimal {
	tax := subtotal.Mul(a.TaxPercent).Div(hundred).Round(moneyPlaces)
	return tax.Add(a.ServiceFee)
}

func (a Adjustments) discount(subtotal decimal.Decimal, nights int) decimal.Decimal {
	if a.LongStay == nil || nights < a.LongStay.MinNights {
		return decimal.Zero
	}
	return subtotal.Mul(a.LongStay.Percent).Div(hundred).Round(moneyPlaces)
}

// NightlyPrice returns the price of one night: the date's own price when set, else the base price
func NightlyPrice(date time.Time, table *availability.Table, basePrice decimal.Decimal) decimal.Decimal {
	if rec, ok := table.Lookup(date); ok && rec.Price != nil {
		return *rec.Price
	}
	return basePrice
}

func price(stay []time.Time, table *availability.Table, cfg Config) *PriceCalculation {
	calc := &PriceCalculation{
		BasePrice:   cfg.BasePrice,
		Nights:      len(stay),
		DailyPrices: make([]DailyPrice, 0, len(stay)),
		Currency:    strings.ToUpper(cfg.Currency),
	}

	subtotal := decimal.Zero
	for _, d := range stay {
		p := NightlyPrice(d, table, cfg.BasePrice)
		calc.DailyPrices = append(calc.DailyPrices, DailyPrice{
			Date:  dateutil.FormatISODate(d),
			Price: p,
		})
		subtotal = subtotal.Add(p)
	}
	calc.Subtotal = subtotal

	total := subtotal
	if fees := cfg.Adjustments.taxesAndFees(subtotal); !fees.IsZero() {
		calc.TaxesAndFees = &fees
		total = total.Add(fees)
	}
	if discount := cfg.Adjustments.discount(subtotal, calc.Nights); !discount.IsZero() {
		calc.Discounts = &discount
		total = total.Sub(discount)
	}
	calc.TotalPrice = total

	if calc.Nights > 0 {
		calc.AveragePerNight = total.DivRound(decimal.NewFromInt(int64(calc.Nights)), moneyPlaces)
	}

	return calc
}
