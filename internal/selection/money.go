package selection

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseCurrency validates an ISO 4217 code and returns its canonical form
func ParseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return unit.String(), nil
}

// FormatMoney renders amount with the locale's symbol for the currency, rounded
// to the currency's standard scale (2 for USD, 0 for JPY).
// Unknown currencies fall back to "<amount> <code>".
func FormatMoney(amount decimal.Decimal, code string, locale language.Tag) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return amount.StringFixed(moneyPlaces) + " " + code
	}

	scale, _ := currency.Standard.Rounding(unit)
	symbol := message.NewPrinter(locale).Sprint(currency.Symbol(unit))
	return symbol + " " + amount.StringFixed(int32(scale))
}
