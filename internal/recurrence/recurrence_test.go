package recurrence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func formatAll(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		pattern Pattern
		limit   int
		want    []string
	}{
		{
			name:    "daily every other day by count",
			start:   "2024-06-10",
			pattern: Pattern{Frequency: Daily, Interval: 2, EndAfterOccurrences: 3},
			want:    []string{"2024-06-10", "2024-06-12", "2024-06-14"},
		},
		{
			name:    "daily until end date",
			start:   "2024-06-10",
			pattern: Pattern{Frequency: Daily, EndDate: "2024-06-12"},
			want:    []string{"2024-06-10", "2024-06-11", "2024-06-12"},
		},
		{
			// 2024-06-10 is a Monday
			name:    "weekly on weekdays skips days before start",
			start:   "2024-06-12",
			pattern: Pattern{Frequency: Weekly, DaysOfWeek: []int{5, 1, 5}, EndAfterOccurrences: 4},
			want:    []string{"2024-06-14", "2024-06-17", "2024-06-21", "2024-06-24"},
		},
		{
			name:    "weekly defaults to start weekday",
			start:   "2024-06-10",
			pattern: Pattern{Frequency: Weekly, Interval: 2, EndDate: "2024-07-08"},
			want:    []string{"2024-06-10", "2024-06-24", "2024-07-08"},
		},
		{
			name:    "monthly clamps to short months",
			start:   "2024-01-31",
			pattern: Pattern{Frequency: Monthly, EndAfterOccurrences: 4},
			want:    []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"},
		},
		{
			name:    "monthly day of month before start begins next month",
			start:   "2024-06-20",
			pattern: Pattern{Frequency: Monthly, DayOfMonth: 5, EndAfterOccurrences: 2},
			want:    []string{"2024-07-05", "2024-08-05"},
		},
		{
			name:    "yearly leap day",
			start:   "2024-02-29",
			pattern: Pattern{Frequency: Yearly, EndAfterOccurrences: 2},
			want:    []string{"2024-02-29", "2025-02-28"},
		},
		{
			name:    "unbounded with limit",
			start:   "2024-06-10",
			pattern: Pattern{Frequency: Daily},
			limit:   2,
			want:    []string{"2024-06-10", "2024-06-11"},
		},
		{
			name:    "limit caps bounded pattern",
			start:   "2024-06-10",
			pattern: Pattern{Frequency: Daily, EndAfterOccurrences: 10},
			limit:   1,
			want:    []string{"2024-06-10"},
		},
		{
			name:    "end date before start",
			start:   "2024-06-10",
			pattern: Pattern{Frequency: Daily, EndDate: "2024-06-01"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(date(tt.start), tt.pattern, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, formatAll(got))
		})
	}
}

func TestExpand_Unbounded(t *testing.T) {
	_, err := Expand(date("2024-06-10"), Pattern{Frequency: Daily}, 0)
	require.ErrorIs(t, err, ErrUnbounded)
}

func TestPattern_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		wantErr bool
	}{
		{name: "valid weekly", pattern: Pattern{Frequency: Weekly, DaysOfWeek: []int{0, 6}}},
		{name: "missing frequency", pattern: Pattern{}, wantErr: true},
		{name: "negative interval", pattern: Pattern{Frequency: Daily, Interval: -1}, wantErr: true},
		{name: "bad end date", pattern: Pattern{Frequency: Daily, EndDate: "soon"}, wantErr: true},
		{name: "weekday out of range", pattern: Pattern{Frequency: Weekly, DaysOfWeek: []int{7}}, wantErr: true},
		{name: "weekdays on daily", pattern: Pattern{Frequency: Daily, DaysOfWeek: []int{1}}, wantErr: true},
		{name: "day of month out of range", pattern: Pattern{Frequency: Monthly, DayOfMonth: 32}, wantErr: true},
		{name: "day of month on yearly", pattern: Pattern{Frequency: Yearly, DayOfMonth: 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pattern.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPattern)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIterator_Reset(t *testing.T) {
	it, err := NewIterator(date("2024-06-10"), Pattern{Frequency: Daily, EndAfterOccurrences: 2})
	require.NoError(t, err)

	var first []time.Time
	for d, ok := it.Next(); ok; d, ok = it.Next() {
		first = append(first, d)
	}
	_, ok := it.Next()
	assert.False(t, ok, "stays exhausted")

	it.Reset()
	var second []time.Time
	for d, ok := it.Next(); ok; d, ok = it.Next() {
		second = append(second, d)
	}
	assert.Equal(t, formatAll(first), formatAll(second))
	assert.Len(t, second, 2)
}

func TestPattern_JSON(t *testing.T) {
	var p Pattern
	require.NoError(t, json.Unmarshal([]byte(`{"frequency":"weekly","daysOfWeek":[1,3],"endAfterOccurrences":4}`), &p))
	assert.Equal(t, Weekly, p.Frequency)
	assert.Equal(t, []int{1, 3}, p.DaysOfWeek)

	require.Error(t, json.Unmarshal([]byte(`{"frequency":"hourly"}`), &p))
}
