package dashboard

import (
	"sort"
	"time"

	"github.com/username/hotel-booking-calendar/pkg/dateutil"
)

// BookingStatus is the lifecycle state shown on the dashboard
type BookingStatus string

const (
	StatusConfirmed  BookingStatus = "confirmed"
	StatusPending    BookingStatus = "pending"
	StatusCancelled  BookingStatus = "cancelled"
	StatusCheckedIn  BookingStatus = "checked-in"
	StatusCheckedOut BookingStatus = "checked-out"
	StatusNoShow     BookingStatus = "no-show"
)

// Occupies reports whether a booking in this state holds its room's nights.
// Cancelled and no-show bookings release them.
func (s BookingStatus) Occupies() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// Room is a bookable unit
type Room struct {
	ID     string `json:"id" mapstructure:"id"`
	Number string `json:"number" mapstructure:"number"`
}

// Booking is the dashboard's view of a reservation
type Booking struct {
	ID         string `json:"id"`
	GuestName  string `json:"guestName"`
	RoomNumber string `json:"roomNumber"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Status     string `json:"status"`
}

// StatusConfig is how a status is labelled and coloured
type StatusConfig struct {
	Key                 string `json:"key"`
	Label               string `json:"label"`
	Color               string `json:"color"`
	BackgroundColor     string `json:"backgroundColor"`
	DarkBackgroundColor string `json:"darkBackgroundColor,omitempty"`
}

// DefaultStatusConfigs returns the built-in palette
func DefaultStatusConfigs() []StatusConfig {
	return []StatusConfig{
		{Key: string(StatusConfirmed), Label: "Confirmed", Color: "#166534", BackgroundColor: "#dcfce7", DarkBackgroundColor: "#14532d"},
		{Key: string(StatusPending), Label: "Pending", Color: "#854d0e", BackgroundColor: "#fef9c3", DarkBackgroundColor: "#713f12"},
		{Key: string(StatusCancelled), Label: "Cancelled", Color: "#991b1b", BackgroundColor: "#fee2e2", DarkBackgroundColor: "#7f1d1d"},
		{Key: string(StatusCheckedIn), Label: "Checked in", Color: "#1e40af", BackgroundColor: "#dbeafe", DarkBackgroundColor: "#1e3a8a"},
		{Key: string(StatusCheckedOut), Label: "Checked out", Color: "#374151", BackgroundColor: "#f3f4f6", DarkBackgroundColor: "#1f2937"},
		{Key: string(StatusNoShow), Label: "No show", Color: "#9a3412", BackgroundColor: "#ffedd5", DarkBackgroundColor: "#7c2d12"},
	}
}

// StatusConfigFor returns the config for key, falling back to pending
func StatusConfigFor(configs []StatusConfig, key string) StatusConfig {
	for _, c := range configs {
		if c.Key == key {
			return c
		}
	}
	for _, c := range configs {
		if c.Key == string(StatusPending) {
			return c
		}
	}
	return StatusConfig{Key: key, Label: key}
}

// Cell is one room-night on the grid
type Cell struct {
	Date    string   `json:"date"`
	Booking *Booking `json:"booking,omitempty"`
	// IsStart marks the first visible night of a booking; Span counts its visible nights
	IsStart bool `json:"isStart"`
	IsEnd   bool `json:"isEnd"`
	Span    int  `json:"span,omitempty"`
}

// Row is one room across the month
type Row struct {
	Room  Room   `json:"room"`
	Cells []Cell `json:"cells"`
	// Occupied counts nights with a booking
	Occupied int `json:"occupied"`
}

// Grid is the occupancy of every room for one month
type Grid struct {
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Dates     []string   `json:"dates"`
	Rows      []Row      `json:"rows"`
	Occupancy float64    `json:"occupancy"`
}

// BuildGrid places bookings on a rooms-by-days grid for the month containing month.
// Bookings are matched to rooms by room number; cancelled and no-show bookings are
// skipped and stays crossing the month boundary are clipped. Where bookings overlap
// the earlier check-in wins the night.
func BuildGrid(rooms []Room, bookings []Booking, month time.Time) Grid {
	first := dateutil.StartOfMonth(month)
	days := dateutil.DaysInMonth(first.Year(), first.Month())

	g := Grid{
		Year:  first.Year(),
		Month: first.Month(),
		Dates: make([]string, days),
		Rows:  make([]Row, 0, len(rooms)),
	}
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := dateutil.FormatISODate(first.AddDate(0, 0, i))
		g.Dates[i] = d
		index[d] = i
	}

	byRoom := make(map[string][]Booking)
	for _, b := range bookings {
		if !BookingStatus(b.Status).Occupies() {
			continue
		}
		byRoom[b.RoomNumber] = append(byRoom[b.RoomNumber], b)
	}

	occupied := 0
	for _, room := range rooms {
		row := Row{Room: room, Cells: make([]Cell, days)}
		for i := range row.Cells {
			row.Cells[i].Date = g.Dates[i]
		}

		roomBookings := byRoom[room.Number]
		sort.SliceStable(roomBookings, func(i, j int) bool {
			return roomBookings[i].CheckIn < roomBookings[j].CheckIn
		})

		for i := range roomBookings {
			place(&row, &roomBookings[i], index)
		}
		occupied += row.Occupied
		g.Rows = append(g.Rows, row)
	}

	if total := days * len(rooms); total > 0 {
		g.Occupancy = float64(occupied) / float64(total)
	}
	return g
}

// place marks the visible nights of b in row, skipping nights already taken
func place(row *Row, b *Booking, index map[string]int) {
	in, err := dateutil.ParseISODate(b.CheckIn)
	if err != nil {
		return
	}
	out, err := dateutil.ParseISODate(b.CheckOut)
	if err != nil {
		return
	}
	nights := dateutil.EachDate(in, out)
	if len(nights) == 0 {
		nights = []time.Time{in}
	}

	var visible []int
	for _, n := range nights {
		i, ok := index[dateutil.FormatISODate(n)]
		if !ok || row.Cells[i].Booking != nil {
			continue
		}
		visible = append(visible, i)
	}
	if len(visible) == 0 {
		return
	}

	for k, i := range visible {
		row.Cells[i].Booking = b
		row.Cells[i].IsStart = k == 0
		row.Cells[i].IsEnd = k == len(visible)-1
	}
	row.Cells[visible[0]].Span = len(visible)
	row.Occupied += len(visible)
}
