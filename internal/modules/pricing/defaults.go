// README: Stock per-vehicle tariffs used to seed a new location.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

type defaultRate struct {
	vehicle                                       VehicleType
	firstHour, additional, daily, weekly, monthly int64
	minCharge, maxDaily, night, lostTicket        int64
	graceMinutes                                  int
}

var defaultRates = []defaultRate{
	{VehicleTwoWheeler, 10, 5, 50, 250, 800, 10, 50, 20, 100, 10},
	{VehicleAutoRickshaw, 15, 10, 80, 400, 1200, 15, 80, 30, 150, 10},
	{VehicleCar, 20, 15, 150, 700, 2000, 20, 150, 50, 200, 10},
	{VehicleMinibus, 40, 30, 300, 1500, 4000, 40, 300, 100, 300, 15},
	{VehicleBus, 50, 40, 400, 2000, 5000, 50, 400, 150, 400, 15},
	{VehicleTruck, 60, 50, 500, 2500, 7000, 60, 500, 200, 500, 15},
	{VehicleHeavyVehicle, 100, 80, 800, 4000, 10000, 100, 800, 300, 800, 20},
}

var (
	defaultNightStart = TimeOfDay{Hour: 22}
	defaultNightEnd   = TimeOfDay{Hour: 6}
)

// DefaultPlans returns one unsaved plan per vehicle type for a location, effective from.
func DefaultPlans(locationID, currency, timezone string, from time.Time) []RatePlan {
	plans := make([]RatePlan, 0, len(defaultRates))
	for _, r := range defaultRates {
		start, end := defaultNightStart, defaultNightEnd
		plans = append(plans, RatePlan{
			LocationID:         locationID,
			VehicleType:        r.vehicle,
			Currency:           currency,
			Timezone:           timezone,
			FirstHourRate:      decimal.NewFromInt(r.firstHour),
			AdditionalHourRate: decimal.NewFromInt(r.additional),
			DailyRate:          decimal.NewFromInt(r.daily),
			WeeklyRate:         decimal.NewFromInt(r.weekly),
			MonthlyRate:        decimal.NewFromInt(r.monthly),
			GracePeriodMinutes: r.graceMinutes,
			MinCharge:          decimal.NewFromInt(r.minCharge),
			MaxDailyCharge:     decimal.NewNullDecimal(decimal.NewFromInt(r.maxDaily)),
			NightCharges:       decimal.NewNullDecimal(decimal.NewFromInt(r.night)),
			NightStart:         &start,
			NightEnd:           &end,
			LostTicketFee:      decimal.NewNullDecimal(decimal.NewFromInt(r.lostTicket)),
			Active:             true,
			EffectiveFrom:      from,
		})
	}
	return plans
}
