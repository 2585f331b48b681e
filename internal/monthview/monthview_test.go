package monthview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/hotel-booking-calendar/internal/availability"
	"github.com/username/hotel-booking-calendar/internal/selection"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestGridBounds(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		weekStart time.Weekday
		wantFirst string
		wantLast  string
	}{
		// June 1st 2024 is a Saturday
		{name: "sunday start", year: 2024, month: time.June, weekStart: time.Sunday, wantFirst: "2024-05-26", wantLast: "2024-07-06"},
		{name: "monday start", year: 2024, month: time.June, weekStart: time.Monday, wantFirst: "2024-05-27", wantLast: "2024-07-07"},
		// September 1st 2024 is a Sunday
		{name: "month starts on week start", year: 2024, month: time.September, weekStart: time.Sunday, wantFirst: "2024-09-01", wantLast: "2024-10-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := GridBounds(tt.year, tt.month, tt.weekStart)
			assert.Equal(t, tt.wantFirst, first.Format("2006-01-02"))
			assert.Equal(t, tt.wantLast, last.Format("2006-01-02"))
		})
	}
}

func TestBuildMonth_Layout(t *testing.T) {
	m := BuildMonth(2024, time.June, Options{Today: date("2024-06-05")})

	require.Len(t, m.Weeks, 6)
	for _, week := range m.Weeks {
		require.Len(t, week, 7)
	}

	days := m.Days()
	require.Len(t, days, 42)

	assert.True(t, days[0].IsPreviousMonth)
	assert.Equal(t, "2024-05-26", days[0].DateString)
	assert.True(t, days[6].IsCurrentMonth)
	assert.Equal(t, 1, days[6].Day)
	assert.True(t, days[41].IsNextMonth)

	current := 0
	for _, d := range days {
		if d.IsCurrentMonth {
			current++
		}
		assert.Equal(t, d.DateString == "2024-06-05", d.IsToday, d.DateString)
	}
	assert.Equal(t, 30, current)
}

func TestBuildMonth_DisabledAndAvailability(t *testing.T) {
	table := availability.MustTable(
		availability.DateAvailability{Date: "2024-06-20", Status: availability.StatusBlocked},
		availability.DateAvailability{Date: "2024-06-21", Status: availability.StatusCheckoutOnly},
	)

	m := BuildMonth(2024, time.June, Options{
		Today:            date("2024-06-10"),
		DisablePastDates: true,
		MaxDate:          date("2024-06-28"),
		Availability:     table,
	})

	byDate := make(map[string]Day)
	for _, d := range m.Days() {
		byDate[d.DateString] = d
	}

	assert.True(t, byDate["2024-06-09"].IsDisabled, "past")
	assert.False(t, byDate["2024-06-10"].IsDisabled, "today")
	assert.True(t, byDate["2024-06-20"].IsDisabled, "blocked")
	assert.False(t, byDate["2024-06-21"].IsDisabled, "checkout-only stays clickable")
	assert.True(t, byDate["2024-06-29"].IsDisabled, "after max date")

	require.NotNil(t, byDate["2024-06-21"].Availability)
	assert.Equal(t, availability.StatusCheckoutOnly, byDate["2024-06-21"].Availability.Status)
	assert.Nil(t, byDate["2024-06-22"].Availability)
}

func TestBuildMonth_BlockedDateAsCheckOut(t *testing.T) {
	table := availability.MustTable(
		availability.DateAvailability{Date: "2024-06-15", Status: availability.StatusBlocked},
		availability.DateAvailability{Date: "2024-06-20", Status: availability.StatusBlocked},
		availability.DateAvailability{Date: "2024-06-21", Status: availability.StatusBlocked},
	)

	tests := []struct {
		name         string
		selection    selection.DateRange
		wantDisabled map[string]bool
	}{
		{
			name:         "no selection",
			wantDisabled: map[string]bool{"2024-06-15": true, "2024-06-20": true, "2024-06-21": true},
		},
		{
			name:         "pending check-in before blocked run",
			selection:    selection.DateRange{CheckIn: date("2024-06-17")},
			wantDisabled: map[string]bool{"2024-06-15": true, "2024-06-20": false, "2024-06-21": true},
		},
		{
			name:         "blocked night between check-in and date",
			selection:    selection.DateRange{CheckIn: date("2024-06-12")},
			wantDisabled: map[string]bool{"2024-06-15": false, "2024-06-20": true, "2024-06-21": true},
		},
		{
			name:         "complete selection",
			selection:    selection.DateRange{CheckIn: date("2024-06-17"), CheckOut: date("2024-06-19")},
			wantDisabled: map[string]bool{"2024-06-15": true, "2024-06-20": true, "2024-06-21": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildMonth(2024, time.June, Options{
				Today:        date("2024-06-01"),
				Selection:    tt.selection,
				Availability: table,
			})

			byDate := make(map[string]Day)
			for _, d := range m.Days() {
				byDate[d.DateString] = d
			}
			for d, want := range tt.wantDisabled {
				assert.Equal(t, want, byDate[d].IsDisabled, d)
			}
		})
	}
}

func TestBuildMonth_Selection(t *testing.T) {
	rng, err := selection.NewDateRange("2024-06-10", "2024-06-13")
	require.NoError(t, err)

	m := BuildMonth(2024, time.June, Options{Today: date("2024-06-01"), Selection: rng})

	var inSelection []string
	for _, d := range m.Days() {
		if d.InSelection {
			inSelection = append(inSelection, d.DateString)
		}
		assert.Equal(t, d.DateString == "2024-06-10", d.IsCheckIn)
		assert.Equal(t, d.DateString == "2024-06-13", d.IsCheckOut)
	}
	assert.Equal(t, []string{"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13"}, inSelection)

	partial, err := selection.NewDateRange("2024-06-10", "")
	require.NoError(t, err)
	m = BuildMonth(2024, time.June, Options{Today: date("2024-06-01"), Selection: partial})
	for _, d := range m.Days() {
		assert.False(t, d.InSelection)
		assert.False(t, d.IsCheckOut)
	}
}
