package booking

import (
	"github.com/username/hotel-booking-calendar/internal/selection"
	"go.uber.org/zap"
)

// Request is the final selection and its price, emitted when the guest commits
type Request struct {
	Selection   selection.DateRange         `json:"selection"`
	Calculation *selection.PriceCalculation `json:"calculation"`
}

// Notifier receives calendar state changes.
// A nil error or calculation clears what was previously shown.
type Notifier interface {
	SelectionChanged(rng selection.DateRange)
	SelectionError(err *selection.SelectionError)
	PriceCalculated(calc *selection.PriceCalculation)
	BookNow(req Request)
}

// NotifierFuncs adapts plain functions to Notifier. Nil fields are skipped.
type NotifierFuncs struct {
	OnSelectionChanged func(selection.DateRange)
	OnSelectionError   func(*selection.SelectionError)
	OnPriceCalculated  func(*selection.PriceCalculation)
	OnBookNow          func(Request)
}

func (f NotifierFuncs) SelectionChanged(rng selection.DateRange) {
	if f.OnSelectionChanged != nil {
		f.OnSelectionChanged(rng)
	}
}

func (f NotifierFuncs) SelectionError(err *selection.SelectionError) {
	if f.OnSelectionError != nil {
		f.OnSelectionError(err)
	}
}

func (f NotifierFuncs) PriceCalculated(calc *selection.PriceCalculation) {
	if f.OnPriceCalculated != nil {
		f.OnPriceCalculated(calc)
	}
}

func (f NotifierFuncs) BookNow(req Request) {
	if f.OnBookNow != nil {
		f.OnBookNow(req)
	}
}

// LogNotifier writes every notification to a zap logger
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs events
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SelectionChanged(rng selection.DateRange) {
	n.logger.Debug("Selection changed", zap.Stringer("range", rng))
}

func (n *LogNotifier) SelectionError(err *selection.SelectionError) {
	if err == nil {
		n.logger.Debug("Selection error cleared")
		return
	}
	n.logger.Info("Selection rejected",
		zap.Stringer("kind", err.Kind),
		zap.String("message", err.Message),
		zap.Strings("dates", err.Dates))
}

func (n *LogNotifier) PriceCalculated(calc *selection.PriceCalculation) {
	if calc == nil {
		n.logger.Debug("Price cleared")
		return
	}
	n.logger.Info("Price calculated",
		zap.Int("nights", calc.Nights),
		zap.String("total", calc.TotalPrice.String()),
		zap.String("currency", calc.Currency))
}

func (n *LogNotifier) BookNow(req Request) {
	fields := []zap.Field{zap.Stringer("range", req.Selection)}
	if req.Calculation != nil {
		fields = append(fields, zap.String("total", req.Calculation.TotalPrice.String()))
	}
	n.logger.Info("Book now", fields...)
}
