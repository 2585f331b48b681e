package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/username/hotel-booking-calendar/internal/availability"
	"github.com/username/hotel-booking-calendar/internal/booking"
	"github.com/username/hotel-booking-calendar/internal/dashboard"
	"github.com/username/hotel-booking-calendar/internal/monthview"
	"github.com/username/hotel-booking-calendar/internal/recurrence"
	"github.com/username/hotel-booking-calendar/internal/selection"
	"github.com/username/hotel-booking-calendar/internal/server"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
	"golang.org/x/text/language"
)

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	outPrintln(string(data))
	return nil
}

func quoteCmd() *cobra.Command {
	var roomID, checkIn, checkOut string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Validate and price a stay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, err := loadConfig()
			if err != nil {
				return err
			}

			rng, err := selection.NewDateRange(checkIn, checkOut)
			if err != nil {
				return err
			}

			result, err := svc.Quote(context.Background(), roomID, rng)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(result)
			}
			printResult(rng, result, cfg.Selection.GetLanguage())
			return nil
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "Room ID")
	cmd.Flags().StringVar(&checkIn, "check-in", "", "Check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&checkOut, "check-out", "", "Check-out date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("check-in")

	return cmd
}

func printResult(rng selection.DateRange, result selection.Result, tag language.Tag) {
	switch result.Kind {
	case selection.KindIncomplete:
		outPrintf("⏳ %s: choose a check-out date\n", rng)

	case selection.KindError:
		outPrintf("❌ %s: %s\n", rng, result.Error.Kind)
		outPrintf("   %s\n", result.Error.Message)

	case selection.KindPriced:
		calc := result.Calculation
		outPrintf("✅ %s: %d night(s)\n", rng, calc.Nights)
		outPrintln("═══════════════════════════════════════")
		for _, d := range calc.DailyPrices {
			outPrintf("  %s  %12s\n", d.Date, selection.FormatMoney(d.Price, calc.Currency, tag))
		}
		outPrintln("---------------------------------------")
		outPrintf("  Subtotal    %12s\n", selection.FormatMoney(calc.Subtotal, calc.Currency, tag))
		if calc.TaxesAndFees != nil {
			outPrintf("  Taxes/fees  %12s\n", selection.FormatMoney(*calc.TaxesAndFees, calc.Currency, tag))
		}
		if calc.Discounts != nil {
			outPrintf("  Discounts  -%12s\n", selection.FormatMoney(*calc.Discounts, calc.Currency, tag))
		}
		outPrintf("  Total       %12s\n", selection.FormatMoney(calc.TotalPrice, calc.Currency, tag))
		outPrintf("  Per night   %12s\n", selection.FormatMoney(calc.AveragePerNight, calc.Currency, tag))
	}
}

func monthCmd() *cobra.Command {
	var roomID, month, checkIn, checkOut string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show a room's availability for one month",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, err := loadConfig()
			if err != nil {
				return err
			}

			first, err := parseMonthFlag(month)
			if err != nil {
				return err
			}
			rng, err := selection.NewDateRange(checkIn, checkOut)
			if err != nil {
				return err
			}
			weekStart, err := cfg.Selection.GetWeekStart()
			if err != nil {
				return err
			}

			m, err := svc.Month(context.Background(), roomID, first.Year(), first.Month(), monthview.Options{
				WeekStart: weekStart,
				Selection: rng,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(m)
			}
			printMonth(m, weekStart)
			return nil
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "Room ID")
	cmd.Flags().StringVar(&month, "month", "", "Month (YYYY-MM, default: current)")
	cmd.Flags().StringVar(&checkIn, "check-in", "", "Highlight a selection starting on this date")
	cmd.Flags().StringVar(&checkOut, "check-out", "", "Highlight a selection ending on this date")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the grid as JSON")

	return cmd
}

func parseMonthFlag(s string) (time.Time, error) {
	if s == "" {
		return dateutil.StartOfMonth(dateutil.Today()), nil
	}
	return dateutil.ParseMonth(s)
}

// printMonth renders the grid; legend: [ ] selected, x blocked/disabled, > checkout-only
func printMonth(m monthview.Month, weekStart time.Weekday) {
	outPrintf("%s %d\n", m.Month, m.Year)

	header := make([]string, 7)
	for i := range header {
		header[i] = fmt.Sprintf("%-4s", time.Weekday((int(weekStart)+i)%7).String()[:2])
	}
	outPrintln(strings.Join(header, ""))

	for _, week := range m.Weeks {
		var b strings.Builder
		for _, d := range week {
			if !d.IsCurrentMonth {
				b.WriteString("    ")
				continue
			}
			mark := " "
			switch {
			case d.IsDisabled:
				mark = "x"
			case d.Availability != nil && d.Availability.Status == availability.StatusCheckoutOnly:
				mark = ">"
			case d.InSelection:
				mark = "*"
			}
			fmt.Fprintf(&b, "%2d%s ", d.Day, mark)
		}
		outPrintln(strings.TrimRight(b.String(), " "))
	}
	outPrintln("\nLegend: x = unavailable, > = check-out only, * = selected")
}

func bookCmd() *cobra.Command {
	var roomID, guest, checkIn, checkOut string

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a room if the stay is valid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, err := loadConfig()
			if err != nil {
				return err
			}

			rng, err := selection.NewDateRange(checkIn, checkOut)
			if err != nil {
				return err
			}

			b, result, err := svc.Book(context.Background(), booking.Reservation{
				RoomID:    roomID,
				GuestName: guest,
				Range:     rng,
			})
			if err != nil {
				if errors.Is(err, booking.ErrNotBookable) {
					printResult(rng, result, cfg.Selection.GetLanguage())
				}
				return err
			}

			printResult(rng, result, cfg.Selection.GetLanguage())
			outPrintf("\n📝 Booking %s confirmed for %s\n", b.ID, b.GuestName)
			return nil
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "Room ID")
	cmd.Flags().StringVar(&guest, "guest", "", "Guest name")
	cmd.Flags().StringVar(&checkIn, "check-in", "", "Check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&checkOut, "check-out", "", "Check-out date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("guest")
	_ = cmd.MarkFlagRequired("check-in")
	_ = cmd.MarkFlagRequired("check-out")

	return cmd
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid booking id: %w", err)
			}

			_, svc, err := loadConfig()
			if err != nil {
				return err
			}

			b, err := svc.Cancel(id)
			if err != nil {
				return err
			}
			outPrintf("🗑  Booking %s (%s, %s..%s) cancelled\n", b.ID, b.RoomID, b.CheckIn, b.CheckOut)
			return nil
		},
	}
}

func bookingsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := loadConfig()
			if err != nil {
				return err
			}

			list := svc.Bookings()
			if asJSON {
				return printJSON(list)
			}

			outPrintln("  ID                                   | Room   | Check-in   | Check-out  | Status      | Total")
			outPrintln("---------------------------------------+--------+------------+------------+-------------+-----------")
			for _, b := range list {
				outPrintf("  %s | %-6s | %s | %s | %-11s | %s %s\n",
					b.ID, b.RoomID, b.CheckIn, b.CheckOut, b.Status, b.TotalPrice.StringFixed(2), b.Currency)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print bookings as JSON")
	return cmd
}

func dashboardCmd() *cobra.Command {
	var month string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show room occupancy for one month",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := loadConfig()
			if err != nil {
				return err
			}

			first, err := parseMonthFlag(month)
			if err != nil {
				return err
			}

			grid := svc.Dashboard(first.Year(), first.Month())
			if asJSON {
				return printJSON(grid)
			}
			printGrid(grid)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month (YYYY-MM, default: current)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the grid as JSON")
	return cmd
}

// printGrid renders one line per room with one character per night
func printGrid(g dashboard.Grid) {
	outPrintf("📊 %s %d, occupancy %.0f%%\n", g.Month, g.Year, g.Occupancy*100)

	var days strings.Builder
	for i := range g.Dates {
		fmt.Fprintf(&days, "%d", (i+1)%10)
	}
	outPrintf("  %-8s %s\n", "Room", days.String())

	for _, row := range g.Rows {
		var b strings.Builder
		for _, c := range row.Cells {
			switch {
			case c.Booking == nil:
				b.WriteByte('.')
			case c.IsStart:
				b.WriteByte('[')
			default:
				b.WriteByte('=')
			}
		}
		outPrintf("  %-8s %s  %d night(s)\n", row.Room.Number, b.String(), row.Occupied)
	}
}

func occurrencesCmd() *cobra.Command {
	var start, frequency, endDate string
	var interval, count, dayOfMonth, limit int
	var daysOfWeek []int

	cmd := &cobra.Command{
		Use:   "occurrences",
		Short: "Expand a recurrence pattern into dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := dateutil.ParseISODate(start)
			if err != nil {
				return err
			}

			var freq recurrence.Frequency
			if err := freq.UnmarshalText([]byte(frequency)); err != nil {
				return err
			}

			dates, err := recurrence.Expand(startDate, recurrence.Pattern{
				Frequency:           freq,
				Interval:            interval,
				EndDate:             endDate,
				EndAfterOccurrences: count,
				DaysOfWeek:          daysOfWeek,
				DayOfMonth:          dayOfMonth,
			}, limit)
			if err != nil {
				return err
			}

			for _, d := range dates {
				outPrintf("%s %s\n", dateutil.FormatISODate(d), d.Weekday().String()[:3])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&frequency, "frequency", "weekly", "daily, weekly, monthly or yearly")
	cmd.Flags().IntVar(&interval, "interval", 1, "Repeat every N periods")
	cmd.Flags().StringVar(&endDate, "end-date", "", "Last possible date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after N occurrences")
	cmd.Flags().IntSliceVar(&daysOfWeek, "days-of-week", nil, "Weekdays for weekly patterns (0 = Sunday)")
	cmd.Flags().IntVar(&dayOfMonth, "day-of-month", 0, "Day for monthly patterns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of dates (required without --end-date or --count)")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, err := loadConfig()
			if err != nil {
				return err
			}

			weekStart, err := cfg.Selection.GetWeekStart()
			if err != nil {
				return err
			}

			srv := server.New(svc, server.Options{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.GetReadTimeout(),
				WriteTimeout:    cfg.Server.GetWriteTimeout(),
				RequestTimeout:  cfg.Server.GetRequestTimeout(),
				ShutdownTimeout: cfg.Server.GetShutdownTimeout(),
				Display: booking.Options{
					ShowSelectionErrors:  cfg.Selection.ShowSelectionErrors,
					ShowPriceCalculation: cfg.Selection.ShowPriceCalculation,
				},
				WeekStart: weekStart,
				Locale:    cfg.Selection.GetLanguage(),
			}, logger)

			return srv.Run()
		},
	}
}
