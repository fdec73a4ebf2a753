package loans

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func rates(daily float64, weekly, monthly *float64) *Book {
	b := &Book{DailyRate: decimal.NewFromFloat(daily)}
	if weekly != nil {
		b.WeeklyRate = decimal.NewNullDecimal(decimal.NewFromFloat(*weekly))
	}
	if monthly != nil {
		b.MonthlyRate = decimal.NewNullDecimal(decimal.NewFromFloat(*monthly))
	}
	return b
}

func f64(v float64) *float64 { return &v }

func TestDurationDays(t *testing.T) {
	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"exact days", start.Add(3 * day), 3},
		{"partial day rounds up", start.Add(36 * time.Hour), 2},
		{"one minute", start.Add(time.Minute), 1},
		{"reversed", start.Add(-2 * day), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DurationDays(start, tt.end))
		})
	}
}

func TestPrice_Tiers(t *testing.T) {
	all := rates(2, f64(10), f64(30))
	tests := []struct {
		name string
		book *Book
		days int
		want string
	}{
		{"weekly tier", all, 3, "10"},
		{"weekly boundary", all, 7, "10"},
		{"monthly tier", all, 14, "30"},
		{"monthly boundary", all, 30, "30"},
		{"daily beyond a month", all, 40, "80"},
		{"no weekly falls through to monthly", rates(2, nil, f64(30)), 3, "30"},
		{"no weekly or monthly", rates(1.5, nil, nil), 3, "4.5"},
		{"weekly only, long loan", rates(2, f64(10), nil), 14, "28"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Price(tt.book, tt.days)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}
