// README: Breakdown builder; itemised receipt lines whose amounts sum to the total.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/types"
)

type LineKind string

const (
	LineGrace       LineKind = "grace"
	LineBase        LineKind = "base"
	LineProgressive LineKind = "progressive"
	LineNight       LineKind = "night"
	LineWeekend     LineKind = "weekend"
	LineHoliday     LineKind = "holiday"
	LineMinimum     LineKind = "minimum"
	LineMaximum     LineKind = "maximum"
	LineLostTicket  LineKind = "lost_ticket"
)

type BreakdownLine struct {
	Kind        LineKind        `json:"kind"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// breakdown appends lines in application order and tracks their running sum,
// so the total is always derived from the lines and never restated.
type breakdown struct {
	lines []BreakdownLine
	total decimal.Decimal
}

func (b *breakdown) add(kind LineKind, amount decimal.Decimal, format string, args ...any) decimal.Decimal {
	amount = types.RoundAmount(amount)
	b.lines = append(b.lines, BreakdownLine{
		Kind:        kind,
		Description: fmt.Sprintf(format, args...),
		Amount:      amount,
	})
	b.total = b.total.Add(amount)
	return amount
}

// SumLines adds up the amounts of a breakdown.
func SumLines(lines []BreakdownLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}

func plural(n int64, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
