package booking

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/username/hotel-booking-calendar/internal/availability"
	"github.com/username/hotel-booking-calendar/internal/selection"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
)

// ErrNotBookable is returned by BookNow when the current selection has no price
var ErrNotBookable = errors.New("selection is not bookable")

// Store persists committed selections
type Store interface {
	Commit(req Request) error
}

// StoreFunc adapts a function to Store
type StoreFunc func(Request) error

func (f StoreFunc) Commit(req Request) error { return f(req) }

// Options control which notifications the controller emits
type Options struct {
	ShowSelectionErrors  bool
	ShowPriceCalculation bool
}

// DefaultOptions emits everything
func DefaultOptions() Options {
	return Options{ShowSelectionErrors: true, ShowPriceCalculation: true}
}

// Controller owns the in-progress selection of one calendar and re-evaluates
// it on every change. Safe for concurrent use. Notifications are delivered
// while the controller is locked, so notifiers must not call back into it.
type Controller struct {
	mu       sync.Mutex
	cfg      selection.Config
	table    *availability.Table
	opts     Options
	notifier Notifier
	store    Store

	rng    selection.DateRange
	result selection.Result
}

// NewController creates a controller with an empty selection.
// notifier and store may be nil.
func NewController(table *availability.Table, cfg selection.Config, opts Options, notifier Notifier, store Store) *Controller {
	return &Controller{
		cfg:      cfg,
		table:    table,
		opts:     opts,
		notifier: notifier,
		store:    store,
		result:   selection.Incomplete(),
	}
}

// Selection returns the current range
func (c *Controller) Selection() selection.DateRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng
}

// Result returns the evaluation of the current range
func (c *Controller) Result() selection.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// ClickDate applies a click on date and returns whether the selection changed.
//
// Dates outside the selectable window are ignored. The first click sets check-in,
// a later date closes the range, and a click on or before check-in starts over.
// Blocked and checkout-only dates can close a range but never open one, since
// the guest does not stay the night of check-out.
func (c *Controller) ClickDate(date time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	date = dateutil.StartOfDay(date)
	if !c.clickable(date) {
		return false
	}

	status := c.table.StatusOf(date)
	checkOutOnly := status == availability.StatusBlocked || status == availability.StatusCheckoutOnly
	next := c.rng

	switch {
	case !c.rng.HasCheckIn() || c.rng.HasCheckOut():
		if checkOutOnly {
			return false
		}
		next = selection.DateRange{CheckIn: date}

	case date.After(c.rng.CheckIn):
		next.CheckOut = date

	case date.Equal(c.rng.CheckIn):
		switch {
		case status == availability.StatusBlocked:
			// a single-day stay would use the blocked night
			return false
		case c.cfg.AllowSingleDay:
			next.CheckOut = date
		default:
			next = selection.DateRange{}
		}

	default:
		if checkOutOnly {
			return false
		}
		next = selection.DateRange{CheckIn: date}
	}

	c.apply(next)
	return true
}

func (c *Controller) clickable(date time.Time) bool {
	if c.cfg.DisablePastDates {
		today := c.cfg.Today
		if today.IsZero() {
			today = dateutil.Today()
		}
		if date.Before(dateutil.StartOfDay(today)) {
			return false
		}
	}
	if !c.cfg.MinDate.IsZero() && date.Before(dateutil.StartOfDay(c.cfg.MinDate)) {
		return false
	}
	if !c.cfg.MaxDate.IsZero() && date.After(dateutil.StartOfDay(c.cfg.MaxDate)) {
		return false
	}
	return true
}

// SetRange replaces the selection without click rules, as when a host restores state
func (c *Controller) SetRange(rng selection.DateRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(rng)
}

// Clear resets the selection
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(selection.DateRange{})
}

// SetAvailability swaps the availability table and re-evaluates the current range
func (c *Controller) SetAvailability(table *availability.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = table
	c.apply(c.rng)
}

// BookNow commits the current selection when it is priced
func (c *Controller) BookNow() (Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.result.Bookable() {
		return Request{}, fmt.Errorf("%w: %s", ErrNotBookable, c.result.Kind)
	}

	req := Request{Selection: c.rng, Calculation: c.result.Calculation}
	if c.store != nil {
		if err := c.store.Commit(req); err != nil {
			return Request{}, fmt.Errorf("failed to commit booking: %w", err)
		}
	}
	if c.notifier != nil {
		c.notifier.BookNow(req)
	}
	return req, nil
}

// apply sets the range, re-evaluates and notifies; callers hold mu
func (c *Controller) apply(rng selection.DateRange) {
	c.rng = rng
	c.result = selection.Evaluate(rng, c.table, c.cfg)

	if c.notifier == nil {
		return
	}
	c.notifier.SelectionChanged(rng)
	if c.opts.ShowSelectionErrors {
		c.notifier.SelectionError(c.result.Error)
	}
	if c.opts.ShowPriceCalculation {
		c.notifier.PriceCalculated(c.result.Calculation)
	}
}
