package pricing

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/types"
)

// Validate checks the plan for internally inconsistent values. It runs once when a plan
// is created; the calculator trusts validated plans.
func (p *RatePlan) Validate() error {
	if p.LocationID == "" {
		return invalid("location_id", "is required")
	}
	if !p.VehicleType.Valid() {
		return invalid("vehicle_type", fmt.Sprintf("%q is not a known vehicle type", p.VehicleType))
	}
	if p.Currency == "" {
		return invalid("currency", "is required")
	}
	if _, err := loadLocation(p.Timezone); err != nil {
		return invalid("timezone", fmt.Sprintf("%q is not a known time zone", p.Timezone))
	}

	rates := []struct {
		field string
		value decimal.Decimal
	}{
		{"first_hour_rate", p.FirstHourRate},
		{"additional_hour_rate", p.AdditionalHourRate},
		{"daily_rate", p.DailyRate},
		{"weekly_rate", p.WeeklyRate},
		{"monthly_rate", p.MonthlyRate},
		{"min_charge", p.MinCharge},
	}
	for _, r := range rates {
		if r.value.IsNegative() {
			return invalid(r.field, "must not be negative")
		}
		if !isWholeMinorUnits(r.value) {
			return invalid(r.field, "must not have more than 2 decimal places")
		}
	}
	optional := []struct {
		field string
		value decimal.NullDecimal
	}{
		{"max_daily_charge", p.MaxDailyCharge},
		{"night_charges", p.NightCharges},
		{"lost_ticket_fee", p.LostTicketFee},
	}
	for _, r := range optional {
		if !r.value.Valid {
			continue
		}
		if r.value.Decimal.IsNegative() {
			return invalid(r.field, "must not be negative")
		}
		if !isWholeMinorUnits(r.value.Decimal) {
			return invalid(r.field, "must not have more than 2 decimal places")
		}
	}
	if p.GracePeriodMinutes < 0 {
		return invalid("grace_period_minutes", "must not be negative")
	}

	one := decimal.NewFromInt(1)
	if p.WeekendMultiplier.Valid && p.WeekendMultiplier.Decimal.LessThanOrEqual(one) {
		return invalid("weekend_multiplier", "must be greater than 1")
	}
	if p.HolidayMultiplier.Valid && p.HolidayMultiplier.Decimal.LessThanOrEqual(one) {
		return invalid("holiday_multiplier", "must be greater than 1")
	}

	if err := p.validateNightWindow(); err != nil {
		return err
	}

	for i, band := range p.ProgressiveRates {
		if band.Hours <= 0 {
			return invalid(fmt.Sprintf("progressive_rates[%d].hours", i), "must be positive")
		}
		if band.Rate.IsNegative() || !isWholeMinorUnits(band.Rate) {
			return invalid(fmt.Sprintf("progressive_rates[%d].rate", i), "must be a non-negative amount")
		}
	}

	if p.MaxDailyCharge.Valid && p.MinCharge.GreaterThan(p.MaxDailyCharge.Decimal) {
		return invalid("min_charge", "must not exceed max_daily_charge")
	}

	if p.EffectiveFrom.IsZero() {
		return invalid("effective_from", "is required")
	}
	if p.EffectiveTo != nil && !p.EffectiveTo.After(p.EffectiveFrom) {
		return invalid("effective_to", "must be after effective_from")
	}
	return nil
}

func (p *RatePlan) validateNightWindow() error {
	if p.NightStart == nil && p.NightEnd == nil {
		if p.NightCharges.Valid && p.NightCharges.Decimal.IsPositive() {
			return invalid("night_start", "and night_end are required with night_charges")
		}
		return nil
	}
	if p.NightStart == nil || p.NightEnd == nil {
		return invalid("night_start", "and night_end must be set together")
	}
	for _, f := range []struct {
		name string
		t    *TimeOfDay
	}{{"night_start", p.NightStart}, {"night_end", p.NightEnd}} {
		if f.t.Hour < 0 || f.t.Hour > 23 || f.t.Minute < 0 || f.t.Minute > 59 {
			return invalid(f.name, fmt.Sprintf("%s is not a valid time of day", f.t))
		}
	}
	if *p.NightStart == *p.NightEnd {
		return invalid("night_end", "must differ from night_start")
	}
	return nil
}

func isWholeMinorUnits(d decimal.Decimal) bool {
	return d.Equal(types.RoundAmount(d))
}

func invalid(field, reason string) error {
	return &InvalidRatePlanError{Field: field, Reason: reason}
}

var zones sync.Map

// loadLocation memoises time.LoadLocation; "" resolves to UTC.
func loadLocation(name string) (*time.Location, error) {
	if v, ok := zones.Load(name); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	zones.Store(name, loc)
	return loc, nil
}
