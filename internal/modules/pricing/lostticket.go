package pricing

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/types"
)

// DefaultLostTicketFee is the system-wide fallback when neither the plan's lost-ticket
// fee nor its daily rate is usable.
var DefaultLostTicketFee = decimal.NewFromInt(200)

// LostTicketFee resolves plan.LostTicketFee, then plan.DailyRate, then systemDefault.
// A nil plan resolves straight to systemDefault.
func LostTicketFee(plan *RatePlan, systemDefault decimal.Decimal) decimal.Decimal {
	if plan != nil {
		if plan.LostTicketFee.Valid && plan.LostTicketFee.Decimal.IsPositive() {
			return plan.LostTicketFee.Decimal
		}
		if plan.DailyRate.IsPositive() {
			return plan.DailyRate
		}
	}
	return systemDefault
}

// ApplyLostTicket appends the lost-ticket penalty as its own line on top of calc.
func ApplyLostTicket(calc FeeCalculation, fee decimal.Decimal) FeeCalculation {
	fee = types.RoundAmount(fee)
	calc.Breakdown = append(slices.Clone(calc.Breakdown), BreakdownLine{
		Kind:        LineLostTicket,
		Description: "Lost ticket fee",
		Amount:      fee,
	})
	calc.LostTicketFee = fee
	calc.TotalAmount = calc.TotalAmount.Add(fee)
	return calc
}
