package availability

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func intPtr(v int) *int { return &v }

func TestNewTable(t *testing.T) {
	price := decimal.NewFromInt(-5)

	tests := []struct {
		name    string
		records []DateAvailability
		wantErr error
	}{
		{
			name: "valid records",
			records: []DateAvailability{
				{Date: "2024-06-10", Status: StatusBlocked},
				{Date: "2024-06-11", Status: StatusAvailable, MinStay: intPtr(2), MaxStay: intPtr(7)},
			},
		},
		{
			name: "duplicate date",
			records: []DateAvailability{
				{Date: "2024-06-10", Status: StatusBlocked},
				{Date: "2024-06-10", Status: StatusAvailable},
			},
			wantErr: ErrDuplicateDate,
		},
		{
			name:    "bad date",
			records: []DateAvailability{{Date: "10.06.2024", Status: StatusBlocked}},
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "missing status",
			records: []DateAvailability{{Date: "2024-06-10"}},
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "negative price",
			records: []DateAvailability{{Date: "2024-06-10", Status: StatusAvailable, Price: &price}},
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "min above max",
			records: []DateAvailability{{Date: "2024-06-10", Status: StatusAvailable, MinStay: intPtr(5), MaxStay: intPtr(3)}},
			wantErr: ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(tt.records)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.records), table.Len())
		})
	}
}

func TestTable_AbsentDatesAreAvailable(t *testing.T) {
	var nilTable *Table
	assert.Equal(t, StatusAvailable, nilTable.StatusOf(date("2024-06-10")))

	table := MustTable(DateAvailability{Date: "2024-06-10", Status: StatusBlocked})
	assert.Equal(t, StatusBlocked, table.StatusOf(date("2024-06-10")))
	assert.Equal(t, StatusAvailable, table.StatusOf(date("2024-06-11")))

	_, ok := table.Lookup(date("2024-06-11"))
	assert.False(t, ok)
}

func TestTable_RecordsSortedAndWindowed(t *testing.T) {
	table := MustTable(
		DateAvailability{Date: "2024-06-12", Status: StatusAvailable},
		DateAvailability{Date: "2024-06-01", Status: StatusBlocked},
		DateAvailability{Date: "2024-05-31", Status: StatusBlocked},
		DateAvailability{Date: "2024-06-30", Status: StatusCheckoutOnly},
	)

	records := table.Records()
	require.Len(t, records, 4)
	assert.Equal(t, "2024-05-31", records[0].Date)
	assert.Equal(t, "2024-06-30", records[3].Date)

	june, err := table.Availability(context.Background(), date("2024-06-01"), date("2024-06-30"))
	require.NoError(t, err)
	assert.Equal(t, 3, june.Len())
}

func TestStatus_JSON(t *testing.T) {
	var rec DateAvailability
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-06-10","status":"checkout-only"}`), &rec))
	assert.Equal(t, StatusCheckoutOnly, rec.Status)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-06-10","status":"checkout-only"}`, string(out))

	err = json.Unmarshal([]byte(`{"date":"2024-06-10","status":"closed"}`), &rec)
	require.ErrorIs(t, err, ErrInvalidRecord)
}

func TestFileSource_LoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.yaml")
	content := `availability:
  - date: "2024-06-10"
    status: blocked
  - date: "2024-06-11"
    status: available
    price: 145.50
    minStay: 2
    maxStay: 14
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fs := NewFileSource(path, zaptest.NewLogger(t))

	_, err := fs.Availability(context.Background(), date("2024-06-01"), date("2024-06-30"))
	require.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, fs.Load())

	table, err := fs.Availability(context.Background(), date("2024-06-01"), date("2024-06-30"))
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, table.StatusOf(date("2024-06-10")))

	rec, ok := table.Lookup(date("2024-06-11"))
	require.True(t, ok)
	require.NotNil(t, rec.Price)
	assert.True(t, rec.Price.Equal(decimal.RequireFromString("145.5")))
	assert.Equal(t, 14, *rec.MaxStay)
}

func TestFileSource_LoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.json")
	content := `{"availability": [{"date": "2024-06-10", "status": "checkout-only", "price": 99}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fs := NewFileSource(path, zaptest.NewLogger(t))
	require.NoError(t, fs.Load())

	table, err := fs.Availability(context.Background(), date("2024-06-01"), date("2024-06-30"))
	require.NoError(t, err)
	assert.Equal(t, StatusCheckoutOnly, table.StatusOf(date("2024-06-10")))
}

func TestFileSource_LoadRejectsUnknownStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.yaml")
	require.NoError(t, os.WriteFile(path, []byte("availability:\n  - date: \"2024-06-10\"\n    status: closed\n"), 0o644))

	fs := NewFileSource(path, zaptest.NewLogger(t))
	require.Error(t, fs.Load())
}

func TestTable_WithStatus(t *testing.T) {
	price := decimal.NewFromInt(150)
	table := MustTable(DateAvailability{Date: "2024-06-10", Status: StatusAvailable, Price: &price})

	overlaid := table.WithStatus(StatusBlocked, date("2024-06-10"), date("2024-06-11"))

	assert.Equal(t, StatusAvailable, table.StatusOf(date("2024-06-10")), "original is untouched")
	assert.Equal(t, StatusBlocked, overlaid.StatusOf(date("2024-06-10")))
	assert.Equal(t, StatusBlocked, overlaid.StatusOf(date("2024-06-11")))

	rec, ok := overlaid.Lookup(date("2024-06-10"))
	require.True(t, ok)
	assert.True(t, rec.Price.Equal(price))

	var nilTable *Table
	assert.Equal(t, 1, nilTable.WithStatus(StatusBlocked, date("2024-06-10")).Len())
}
