// README: Rate plan definition per location and vehicle type, plus fee calculation results.
package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VehicleType string

const (
	VehicleTwoWheeler   VehicleType = "TWO_WHEELER"
	VehicleAutoRickshaw VehicleType = "AUTO_RICKSHAW"
	VehicleCar          VehicleType = "CAR"
	VehicleMinibus      VehicleType = "MINIBUS"
	VehicleBus          VehicleType = "BUS"
	VehicleTruck        VehicleType = "TRUCK"
	VehicleHeavyVehicle VehicleType = "HEAVY_VEHICLE"
)

var VehicleTypes = []VehicleType{
	VehicleTwoWheeler,
	VehicleAutoRickshaw,
	VehicleCar,
	VehicleMinibus,
	VehicleBus,
	VehicleTruck,
	VehicleHeavyVehicle,
}

func (v VehicleType) Valid() bool {
	for _, t := range VehicleTypes {
		if t == v {
			return true
		}
	}
	return false
}

type Band string

const (
	BandGrace   Band = "GRACE"
	BandHourly  Band = "HOURLY"
	BandDaily   Band = "DAILY"
	BandWeekly  Band = "WEEKLY"
	BandMonthly Band = "MONTHLY"
)

type ProgressiveRate struct {
	Hours int             `json:"hours"`
	Rate  decimal.Decimal `json:"rate"`
}

// TimeOfDay is a local wall-clock time, serialised as "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// RatePlan is one tariff for a (location, vehicle type) pair over an effective-date range.
// Plans are versioned by EffectiveFrom/EffectiveTo rather than edited in place.
type RatePlan struct {
	ID                 uuid.UUID           `json:"id"`
	LocationID         string              `json:"location_id"`
	VehicleType        VehicleType         `json:"vehicle_type"`
	Currency           string              `json:"currency"`
	Timezone           string              `json:"timezone"`
	FirstHourRate      decimal.Decimal     `json:"first_hour_rate"`
	AdditionalHourRate decimal.Decimal     `json:"additional_hour_rate"`
	DailyRate          decimal.Decimal     `json:"daily_rate"`
	WeeklyRate         decimal.Decimal     `json:"weekly_rate"`
	MonthlyRate        decimal.Decimal     `json:"monthly_rate"`
	GracePeriodMinutes int                 `json:"grace_period_minutes"`
	MinCharge          decimal.Decimal     `json:"min_charge"`
	MaxDailyCharge     decimal.NullDecimal `json:"max_daily_charge"`
	NightCharges       decimal.NullDecimal `json:"night_charges"`
	NightStart         *TimeOfDay          `json:"night_start,omitempty"`
	NightEnd           *TimeOfDay          `json:"night_end,omitempty"`
	WeekendMultiplier  decimal.NullDecimal `json:"weekend_multiplier"`
	HolidayMultiplier  decimal.NullDecimal `json:"holiday_multiplier"`
	ProgressiveRates   []ProgressiveRate   `json:"progressive_rates,omitempty"`
	LostTicketFee      decimal.NullDecimal `json:"lost_ticket_fee"`
	Active             bool                `json:"active"`
	EffectiveFrom      time.Time           `json:"effective_from"`
	EffectiveTo        *time.Time          `json:"effective_to,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// AppliesAt reports whether the plan is in force at t. EffectiveTo is exclusive.
func (p *RatePlan) AppliesAt(t time.Time) bool {
	if !p.Active || t.Before(p.EffectiveFrom) {
		return false
	}
	return p.EffectiveTo == nil || t.Before(*p.EffectiveTo)
}

// StayInterval is the priced span of a ticket. A zero Exit means "still parked".
type StayInterval struct {
	Entry time.Time
	Exit  time.Time
}

// Resolve fills a missing exit with now for an in-progress estimate.
func (s StayInterval) Resolve(now time.Time) StayInterval {
	if s.Exit.IsZero() {
		s.Exit = now
	}
	return s
}

type FeeCalculation struct {
	PlanID         uuid.UUID       `json:"plan_id"`
	Currency       string          `json:"currency"`
	Band           Band            `json:"band"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
	NightCharges   decimal.Decimal `json:"night_charges"`
	WeekendCharges decimal.Decimal `json:"weekend_charges"`
	Adjustment     decimal.Decimal `json:"adjustment"`
	LostTicketFee  decimal.Decimal `json:"lost_ticket_fee"`
	TotalMinutes   int64           `json:"total_minutes"`
	TotalHours     int64           `json:"total_hours"`
	Units          int64           `json:"units"`
	Entry          time.Time       `json:"entry_time"`
	Exit           time.Time       `json:"exit_time"`
	Breakdown      []BreakdownLine `json:"breakdown"`
}
