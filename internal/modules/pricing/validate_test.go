package pricing

import (
	"errors"
	"testing"
	"time"
)

func TestRatePlan_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mod       func(*RatePlan)
		wantField string
	}{
		{"valid simple plan", func(*RatePlan) {}, ""},
		{"valid default plan shape", func(p *RatePlan) {
			p.MaxDailyCharge = nullDec("150")
			p.NightCharges = nullDec("50")
			p.NightStart, p.NightEnd = tod(22, 0), tod(6, 0)
			p.WeekendMultiplier = nullDec("1.5")
			p.LostTicketFee = nullDec("200")
		}, ""},
		{"missing location", func(p *RatePlan) { p.LocationID = "" }, "location_id"},
		{"unknown vehicle type", func(p *RatePlan) { p.VehicleType = "SPACESHIP" }, "vehicle_type"},
		{"missing currency", func(p *RatePlan) { p.Currency = "" }, "currency"},
		{"unknown time zone", func(p *RatePlan) { p.Timezone = "Mars/Olympus" }, "timezone"},
		{"negative first hour rate", func(p *RatePlan) { p.FirstHourRate = dec("-1") }, "first_hour_rate"},
		{"negative daily rate", func(p *RatePlan) { p.DailyRate = dec("-0.01") }, "daily_rate"},
		{"sub-minor-unit rate", func(p *RatePlan) { p.AdditionalHourRate = dec("2.505") }, "additional_hour_rate"},
		{"negative cap", func(p *RatePlan) { p.MaxDailyCharge = nullDec("-5") }, "max_daily_charge"},
		{"negative lost ticket fee", func(p *RatePlan) { p.LostTicketFee = nullDec("-5") }, "lost_ticket_fee"},
		{"negative grace", func(p *RatePlan) { p.GracePeriodMinutes = -1 }, "grace_period_minutes"},
		{"weekend multiplier of 1", func(p *RatePlan) { p.WeekendMultiplier = nullDec("1") }, "weekend_multiplier"},
		{"holiday multiplier below 1", func(p *RatePlan) { p.HolidayMultiplier = nullDec("0.8") }, "holiday_multiplier"},
		{"night charge without window", func(p *RatePlan) { p.NightCharges = nullDec("50") }, "night_start"},
		{"half a night window", func(p *RatePlan) { p.NightStart = tod(22, 0) }, "night_start"},
		{"empty night window", func(p *RatePlan) {
			p.NightCharges = nullDec("50")
			p.NightStart, p.NightEnd = tod(22, 0), tod(22, 0)
		}, "night_end"},
		{"out of range time of day", func(p *RatePlan) {
			p.NightCharges = nullDec("50")
			p.NightStart, p.NightEnd = tod(24, 0), tod(6, 0)
		}, "night_start"},
		{"out of range night end", func(p *RatePlan) {
			p.NightCharges = nullDec("50")
			p.NightStart, p.NightEnd = tod(22, 0), tod(6, 75)
		}, "night_end"},
		{"progressive band with zero hours", func(p *RatePlan) {
			p.ProgressiveRates = []ProgressiveRate{{Hours: 2, Rate: dec("10")}, {Hours: 0, Rate: dec("8")}}
		}, "progressive_rates[1].hours"},
		{"progressive band with negative rate", func(p *RatePlan) {
			p.ProgressiveRates = []ProgressiveRate{{Hours: 2, Rate: dec("-10")}}
		}, "progressive_rates[0].rate"},
		{"floor above ceiling", func(p *RatePlan) {
			p.MinCharge = dec("20")
			p.MaxDailyCharge = nullDec("10")
		}, "min_charge"},
		{"missing effective_from", func(p *RatePlan) { p.EffectiveFrom = time.Time{} }, "effective_from"},
		{"effective_to before effective_from", func(p *RatePlan) {
			to := p.EffectiveFrom.Add(-time.Hour)
			p.EffectiveTo = &to
		}, "effective_to"},
		{"effective_to equal to effective_from", func(p *RatePlan) {
			to := p.EffectiveFrom
			p.EffectiveTo = &to
		}, "effective_to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testPlan(tt.mod).Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidRatePlan) {
				t.Fatalf("Validate() error = %v, want ErrInvalidRatePlan", err)
			}
			var target *InvalidRatePlanError
			if !errors.As(err, &target) {
				t.Fatalf("expected *InvalidRatePlanError, got %T", err)
			}
			if target.Field != tt.wantField {
				t.Errorf("Field = %q, want %q (%v)", target.Field, tt.wantField, err)
			}
		})
	}
}

func TestDefaultPlans_AreValid(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	plans := DefaultPlans("loc-1", "INR", "Asia/Kolkata", from)
	if len(plans) != len(VehicleTypes) {
		t.Fatalf("got %d default plans, want %d", len(plans), len(VehicleTypes))
	}
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", p.VehicleType, err)
		}
	}
}

func TestTimeOfDay_Text(t *testing.T) {
	var v TimeOfDay
	if err := v.UnmarshalText([]byte("06:30")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if v.Hour != 6 || v.Minute != 30 {
		t.Fatalf("got %+v", v)
	}
	if b, _ := v.MarshalText(); string(b) != "06:30" {
		t.Errorf("MarshalText = %s", b)
	}
	if err := v.UnmarshalText([]byte("25:00")); err == nil {
		t.Error("expected error for 25:00")
	}
}

func TestRatePlan_AppliesAt(t *testing.T) {
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	p := testPlan(func(p *RatePlan) { p.EffectiveTo = &to })

	cases := []struct {
		at   time.Time
		want bool
	}{
		{p.EffectiveFrom.Add(-time.Second), false},
		{p.EffectiveFrom, true},
		{to.Add(-time.Second), true},
		{to, false},
	}
	for _, c := range cases {
		if got := p.AppliesAt(c.at); got != c.want {
			t.Errorf("AppliesAt(%s) = %v, want %v", c.at, got, c.want)
		}
	}

	p.Active = false
	if p.AppliesAt(p.EffectiveFrom) {
		t.Error("inactive plan should not apply")
	}
}
