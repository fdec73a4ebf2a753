package loans

import (
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// DurationDays is the number of started days between start and end.
func DurationDays(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		d = -d
	}
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

// Price picks the duration tier. Tiers are flat: a 3 day loan with a weekly
// rate costs the weekly rate, and a short loan without one falls through to
// the monthly rate before daily pricing.
func Price(b *Book, days int) decimal.Decimal {
	switch {
	case days <= 7 && b.WeeklyRate.Valid:
		return b.WeeklyRate.Decimal
	case days <= 30 && b.MonthlyRate.Valid:
		return b.MonthlyRate.Decimal
	default:
		return b.DailyRate.Mul(decimal.NewFromInt(int64(days)))
	}
}
