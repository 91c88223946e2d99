// README: Rate plan and holiday store backed by PostgreSQL.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrPlanNotFound = errors.New("rate plan not found")

// PlanScope identifies the (location, vehicle type) pair a plan prices.
type PlanScope struct {
	LocationID  string
	VehicleType VehicleType
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const planColumns = `
	id, location_id, vehicle_type, currency, timezone,
	first_hour_rate::text, additional_hour_rate::text, daily_rate::text, weekly_rate::text, monthly_rate::text,
	grace_period_minutes, min_charge::text, max_daily_charge::text,
	night_charges::text, night_start, night_end,
	weekend_multiplier::text, holiday_multiplier::text,
	progressive_rates, lost_ticket_fee::text,
	active, effective_from, effective_to, created_at, updated_at`

// CreatePlan inserts p as a new version. Open plans for the same scope that overlap
// p.EffectiveFrom are closed at that instant, and plans starting inside p's range are
// deactivated, so at most one active plan applies at any instant.
func (s *Store) CreatePlan(ctx context.Context, p *RatePlan) error {
	progressive, err := json.Marshal(p.ProgressiveRates)
	if err != nil {
		return err
	}
	if p.ProgressiveRates == nil {
		progressive = []byte("[]")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE rate_plans
		SET effective_to = $3, updated_at = NOW()
		WHERE location_id = $1 AND vehicle_type = $2 AND active
		  AND effective_from < $3
		  AND (effective_to IS NULL OR effective_to > $3)`,
		p.LocationID, string(p.VehicleType), p.EffectiveFrom,
	); err != nil {
		return fmt.Errorf("close previous plan: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE rate_plans
		SET active = FALSE, updated_at = NOW()
		WHERE location_id = $1 AND vehicle_type = $2 AND active
		  AND effective_from >= $3
		  AND ($4::timestamptz IS NULL OR effective_from < $4)`,
		p.LocationID, string(p.VehicleType), p.EffectiveFrom, p.EffectiveTo,
	); err != nil {
		return fmt.Errorf("supersede later plans: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO rate_plans (
			id, location_id, vehicle_type, currency, timezone,
			first_hour_rate, additional_hour_rate, daily_rate, weekly_rate, monthly_rate,
			grace_period_minutes, min_charge, max_daily_charge,
			night_charges, night_start, night_end,
			weekend_multiplier, holiday_multiplier,
			progressive_rates, lost_ticket_fee,
			active, effective_from, effective_to, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16,
			$17, $18,
			$19, $20,
			$21, $22, $23, $24, $25
		)`,
		p.ID, p.LocationID, string(p.VehicleType), p.Currency, p.Timezone,
		p.FirstHourRate.String(), p.AdditionalHourRate.String(), p.DailyRate.String(), p.WeeklyRate.String(), p.MonthlyRate.String(),
		p.GracePeriodMinutes, p.MinCharge.String(), nullDecimalParam(p.MaxDailyCharge),
		nullDecimalParam(p.NightCharges), timeOfDayParam(p.NightStart), timeOfDayParam(p.NightEnd),
		nullDecimalParam(p.WeekendMultiplier), nullDecimalParam(p.HolidayMultiplier),
		progressive, nullDecimalParam(p.LostTicketFee),
		p.Active, p.EffectiveFrom, p.EffectiveTo, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) GetPlan(ctx context.Context, id uuid.UUID) (*RatePlan, error) {
	row := s.db.QueryRow(ctx, `SELECT `+planColumns+` FROM rate_plans WHERE id = $1`, id)
	p, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

// ListPlans returns a location's plans, newest version first per vehicle type.
func (s *Store) ListPlans(ctx context.Context, locationID string, activeOnly bool) ([]RatePlan, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+planColumns+`
		FROM rate_plans
		WHERE location_id = $1 AND (NOT $2 OR active)
		ORDER BY vehicle_type, effective_from DESC`, locationID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []RatePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// FindActive implements RatePlanRepository.
func (s *Store) FindActive(ctx context.Context, locationID string, vehicleType VehicleType, asOf time.Time) (*RatePlan, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+planColumns+`
		FROM rate_plans
		WHERE location_id = $1 AND vehicle_type = $2 AND active
		  AND effective_from <= $3
		  AND (effective_to IS NULL OR effective_to > $3)
		ORDER BY effective_from DESC
		LIMIT 1`, locationID, string(vehicleType), asOf)
	p, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NoRatePlanFoundError{LocationID: locationID, VehicleType: vehicleType, AsOf: asOf}
	}
	return p, err
}

func (s *Store) DeactivatePlan(ctx context.Context, id uuid.UUID) (PlanScope, error) {
	var scope PlanScope
	err := s.db.QueryRow(ctx, `
		UPDATE rate_plans SET active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING location_id, vehicle_type`, id,
	).Scan(&scope.LocationID, &scope.VehicleType)
	if errors.Is(err, pgx.ErrNoRows) {
		return PlanScope{}, ErrPlanNotFound
	}
	return scope, err
}

// EndedBetween lists the scopes whose plans reached EffectiveTo in (after, upTo]. Ended
// plans keep active = TRUE: their range still prices tickets that entered before it closed.
func (s *Store) EndedBetween(ctx context.Context, after, upTo time.Time) ([]PlanScope, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT location_id, vehicle_type
		FROM rate_plans
		WHERE active AND effective_to > $1 AND effective_to <= $2`, after, upTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scopes []PlanScope
	for rows.Next() {
		var sc PlanScope
		if err := rows.Scan(&sc.LocationID, &sc.VehicleType); err != nil {
			return nil, err
		}
		scopes = append(scopes, sc)
	}
	return scopes, rows.Err()
}

func (s *Store) AddHoliday(ctx context.Context, locationID string, day time.Time, name string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO holidays (location_id, holiday_date, name)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (location_id, holiday_date) DO UPDATE SET name = EXCLUDED.name`,
		locationID, day.Format(dateKey), name)
	return err
}

// Holidays implements HolidayCalendar. The range is widened by a day on each side so
// plan-local dates near midnight UTC are covered.
func (s *Store) Holidays(ctx context.Context, locationID string, from, to time.Time) (HolidaySet, error) {
	rows, err := s.db.Query(ctx, `
		SELECT holiday_date
		FROM holidays
		WHERE location_id = $1 AND holiday_date BETWEEN $2::date AND $3::date`,
		locationID, from.AddDate(0, 0, -1).Format(dateKey), to.AddDate(0, 0, 1).Format(dateKey))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := HolidaySet{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		set[d.Format(dateKey)] = struct{}{}
	}
	return set, rows.Err()
}

func scanPlan(row pgx.Row) (*RatePlan, error) {
	var (
		p                                          RatePlan
		first, additional, daily, weekly, monthly  string
		minCharge                                  string
		maxDaily, night, weekend, holiday, lostFee *string
		nightStart, nightEnd                       *string
		progressive                                []byte
	)
	err := row.Scan(
		&p.ID, &p.LocationID, &p.VehicleType, &p.Currency, &p.Timezone,
		&first, &additional, &daily, &weekly, &monthly,
		&p.GracePeriodMinutes, &minCharge, &maxDaily,
		&night, &nightStart, &nightEnd,
		&weekend, &holiday,
		&progressive, &lostFee,
		&p.Active, &p.EffectiveFrom, &p.EffectiveTo, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&p.FirstHourRate, first},
		{&p.AdditionalHourRate, additional},
		{&p.DailyRate, daily},
		{&p.WeeklyRate, weekly},
		{&p.MonthlyRate, monthly},
		{&p.MinCharge, minCharge},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		dst *decimal.NullDecimal
		src *string
	}{
		{&p.MaxDailyCharge, maxDaily},
		{&p.NightCharges, night},
		{&p.WeekendMultiplier, weekend},
		{&p.HolidayMultiplier, holiday},
		{&p.LostTicketFee, lostFee},
	} {
		if *f.dst, err = toNullDecimal(f.src); err != nil {
			return nil, err
		}
	}
	if p.NightStart, err = toTimeOfDay(nightStart); err != nil {
		return nil, err
	}
	if p.NightEnd, err = toTimeOfDay(nightEnd); err != nil {
		return nil, err
	}
	if len(progressive) > 0 {
		if err := json.Unmarshal(progressive, &p.ProgressiveRates); err != nil {
			return nil, fmt.Errorf("progressive rates: %w", err)
		}
	}
	return &p, nil
}

func nullDecimalParam(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.String()
	return &v
}

func timeOfDayParam(t *TimeOfDay) *string {
	if t == nil {
		return nil
	}
	v := t.String()
	return &v
}

func toNullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func toTimeOfDay(s *string) (*TimeOfDay, error) {
	if s == nil {
		return nil, nil
	}
	t, err := ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
