// README: Night and weekend/holiday surcharges evaluated in the plan's local time.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateKey = "2006-01-02"

// HolidaySet holds calendar dates (YYYY-MM-DD) treated as holidays for a location.
type HolidaySet map[string]struct{}

func NewHolidaySet(dates ...time.Time) HolidaySet {
	h := make(HolidaySet, len(dates))
	for _, d := range dates {
		h[d.Format(dateKey)] = struct{}{}
	}
	return h
}

// Contains reports whether day's calendar date, in day's own location, is a holiday.
func (h HolidaySet) Contains(day time.Time) bool {
	_, ok := h[day.Format(dateKey)]
	return ok
}

type dayWalk struct {
	stay  StayInterval
	hours int64
	loc   *time.Location
}

// anyHourStart reports whether fn holds for the local start time of some billed hour.
func (w dayWalk) anyHourStart(fn func(time.Time) bool) bool {
	for i := int64(0); i < w.hours; i++ {
		if fn(w.stay.Entry.Add(time.Duration(i) * time.Hour).In(w.loc)) {
			return true
		}
	}
	return false
}

// anyDay reports whether fn holds for some local calendar day from entry to exit inclusive.
func (w dayWalk) anyDay(fn func(time.Time) bool) bool {
	last := midnight(w.stay.Exit.In(w.loc))
	for d := midnight(w.stay.Entry.In(w.loc)); !d.After(last); d = d.AddDate(0, 0, 1) {
		if fn(d) {
			return true
		}
	}
	return false
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func nightCharge(plan *RatePlan, w dayWalk, b *breakdown) decimal.Decimal {
	if !plan.NightCharges.Valid || !plan.NightCharges.Decimal.IsPositive() {
		return decimal.Zero
	}
	if plan.NightStart == nil || plan.NightEnd == nil {
		return decimal.Zero
	}
	start, end := plan.NightStart.minutes(), plan.NightEnd.minutes()
	hit := w.anyHourStart(func(t time.Time) bool {
		return inWindow(t.Hour()*60+t.Minute(), start, end)
	})
	if !hit {
		return decimal.Zero
	}
	return b.add(LineNight, plan.NightCharges.Decimal, "Night parking charges")
}

// inWindow checks m against [start, end), wrapping past midnight when start > end.
func inWindow(m, start, end int) bool {
	if start < end {
		return m >= start && m < end
	}
	return m >= start || m < end
}

// dayCharge applies base * (multiplier - 1) using the larger of the weekend and holiday
// multipliers that apply to the stay. The two never compound.
func dayCharge(plan *RatePlan, w dayWalk, holidays HolidaySet, base decimal.Decimal, b *breakdown) decimal.Decimal {
	weekend := plan.WeekendMultiplier.Valid && w.anyDay(isWeekend)
	holiday := plan.HolidayMultiplier.Valid && len(holidays) > 0 && w.anyDay(holidays.Contains)

	var (
		multiplier decimal.Decimal
		kind       LineKind
		label      string
	)
	switch {
	case holiday && (!weekend || plan.HolidayMultiplier.Decimal.GreaterThan(plan.WeekendMultiplier.Decimal)):
		multiplier, kind, label = plan.HolidayMultiplier.Decimal, LineHoliday, "Holiday charges"
	case weekend:
		multiplier, kind, label = plan.WeekendMultiplier.Decimal, LineWeekend, "Weekend charges"
	default:
		return decimal.Zero
	}
	return b.add(kind, base.Mul(multiplier.Sub(decimal.NewFromInt(1))), "%s", label)
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
