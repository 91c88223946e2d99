// README: Fee calculator; band pricing, surcharges and caps for one stay under one plan.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Calculate prices stay under plan. The plan must already be validated and stay.Exit
// resolved. holidays may be nil. Calculate has no side effects and is safe for
// concurrent use.
func Calculate(plan *RatePlan, stay StayInterval, holidays HolidaySet) (FeeCalculation, error) {
	c, err := Classify(stay.Entry, stay.Exit, plan.GracePeriodMinutes)
	if err != nil {
		return FeeCalculation{}, err
	}
	loc, err := loadLocation(plan.Timezone)
	if err != nil {
		return FeeCalculation{}, invalid("timezone", fmt.Sprintf("%q is not a known time zone", plan.Timezone))
	}

	res := FeeCalculation{
		PlanID:       plan.ID,
		Currency:     plan.Currency,
		Band:         c.Band,
		TotalMinutes: c.TotalMinutes,
		TotalHours:   c.TotalHours,
		Units:        c.Units,
		Entry:        stay.Entry,
		Exit:         stay.Exit,
	}

	var b breakdown
	if c.Band == BandGrace {
		b.add(LineGrace, decimal.Zero, "Grace period")
		res.Breakdown = b.lines
		res.TotalAmount = b.total
		return res, nil
	}

	d := dayWalk{stay: stay, hours: c.TotalHours, loc: loc}
	res.BaseAmount = baseAmount(plan, c, &b)
	res.NightCharges = nightCharge(plan, d, &b)
	res.WeekendCharges = dayCharge(plan, d, holidays, res.BaseAmount, &b)
	res.Adjustment = applyLimits(plan, &b)

	res.Breakdown = b.lines
	res.TotalAmount = b.total
	return res, nil
}

func baseAmount(plan *RatePlan, c Classification, b *breakdown) decimal.Decimal {
	units := decimal.NewFromInt(c.Units)
	switch c.Band {
	case BandMonthly:
		return b.add(LineBase, plan.MonthlyRate.Mul(units), "Monthly pass (%s)", plural(c.Units, "month"))
	case BandWeekly:
		return b.add(LineBase, plan.WeeklyRate.Mul(units), "Weekly pass (%s)", plural(c.Units, "week"))
	case BandDaily:
		return b.add(LineBase, plan.DailyRate.Mul(units), "Daily rate (%s)", plural(c.Units, "day"))
	}
	if len(plan.ProgressiveRates) > 0 {
		return progressiveAmount(plan.ProgressiveRates, c.TotalHours, b)
	}
	base := b.add(LineBase, plan.FirstHourRate, "First hour")
	if extra := c.TotalHours - 1; extra > 0 {
		more := plan.AdditionalHourRate.Mul(decimal.NewFromInt(extra))
		base = base.Add(b.add(LineBase, more, "Additional %s", plural(extra, "hour")))
	}
	return base
}

// progressiveAmount consumes bands in order. Hours left once the list runs out are
// billed at the last band's rate, folded into that band's line.
func progressiveAmount(bands []ProgressiveRate, hours int64, b *breakdown) decimal.Decimal {
	sum := decimal.Zero
	first := int64(1)
	for i, band := range bands {
		if hours <= 0 {
			break
		}
		n := min(hours, int64(band.Hours))
		if i == len(bands)-1 {
			n = hours
		}
		amount := band.Rate.Mul(decimal.NewFromInt(n))
		if n == 1 {
			sum = sum.Add(b.add(LineProgressive, amount, "Hour %d", first))
		} else {
			sum = sum.Add(b.add(LineProgressive, amount, "Hours %d-%d", first, first+n-1))
		}
		first += n
		hours -= n
	}
	return sum
}

// applyLimits raises the running total to MinCharge or clamps it to MaxDailyCharge and
// returns the signed delta. Validation guarantees MinCharge <= MaxDailyCharge, so at
// most one line is emitted.
func applyLimits(plan *RatePlan, b *breakdown) decimal.Decimal {
	adj := decimal.Zero
	if plan.MinCharge.IsPositive() && b.total.LessThan(plan.MinCharge) {
		adj = adj.Add(b.add(LineMinimum, plan.MinCharge.Sub(b.total), "Minimum charge applied"))
	}
	if plan.MaxDailyCharge.Valid && b.total.GreaterThan(plan.MaxDailyCharge.Decimal) {
		adj = adj.Add(b.add(LineMaximum, plan.MaxDailyCharge.Decimal.Sub(b.total), "Daily maximum cap applied"))
	}
	return adj
}
