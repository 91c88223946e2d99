// README: Pricing service resolves the plan in force and runs the fee calculator.
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// RatePlanRepository resolves the plan in force for a scope at an instant. Implementations
// return *NoRatePlanFoundError (or an error wrapping ErrNoRatePlan) when nothing applies.
type RatePlanRepository interface {
	FindActive(ctx context.Context, locationID string, vehicleType VehicleType, asOf time.Time) (*RatePlan, error)
}

// HolidayCalendar lists holiday dates for a location between two instants, inclusive.
type HolidayCalendar interface {
	Holidays(ctx context.Context, locationID string, from, to time.Time) (HolidaySet, error)
}

type Service struct {
	plans         RatePlanRepository
	holidays      HolidayCalendar
	lostTicketFee decimal.Decimal
	now           func() time.Time
}

func NewService(plans RatePlanRepository, holidays HolidayCalendar, lostTicketDefault decimal.Decimal) *Service {
	return &Service{
		plans:         plans,
		holidays:      holidays,
		lostTicketFee: lostTicketDefault,
		now:           time.Now,
	}
}

// WithClock replaces the service clock; used by tests and the ticket flow.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Service) Now() time.Time {
	return s.now()
}

type QuoteRequest struct {
	LocationID  string
	VehicleType VehicleType
	Entry       time.Time
	// Exit is optional; zero prices the stay up to now.
	Exit time.Time
}

// Quote prices a stay under the plan that was in force at check-in.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (FeeCalculation, error) {
	stay := StayInterval{Entry: req.Entry, Exit: req.Exit}.Resolve(s.now())
	if stay.Exit.Before(stay.Entry) {
		return FeeCalculation{}, &InvalidIntervalError{Entry: stay.Entry, Exit: stay.Exit}
	}
	plan, err := s.resolve(ctx, req.LocationID, req.VehicleType, req.Entry)
	if err != nil {
		return FeeCalculation{}, err
	}
	var holidays HolidaySet
	if s.holidays != nil && plan.HolidayMultiplier.Valid {
		holidays, err = s.holidays.Holidays(ctx, req.LocationID, stay.Entry, stay.Exit)
		if err != nil {
			return FeeCalculation{}, err
		}
	}
	return Calculate(plan, stay, holidays)
}

// Estimate prices a stay of the given length starting now.
func (s *Service) Estimate(ctx context.Context, locationID string, vehicleType VehicleType, d time.Duration) (FeeCalculation, error) {
	entry := s.now()
	return s.Quote(ctx, QuoteRequest{
		LocationID:  locationID,
		VehicleType: vehicleType,
		Entry:       entry,
		Exit:        entry.Add(d),
	})
}

// LostTicketFee resolves the lost-ticket fee for the plan in force now. When no plan is
// in force the system default applies.
func (s *Service) LostTicketFee(ctx context.Context, locationID string, vehicleType VehicleType) (decimal.Decimal, error) {
	plan, err := s.resolve(ctx, locationID, vehicleType, s.now())
	if errors.Is(err, ErrNoRatePlan) {
		return LostTicketFee(nil, s.lostTicketFee), nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return LostTicketFee(plan, s.lostTicketFee), nil
}

// ResolvePlan exposes plan resolution to callers that record which plan priced a ticket.
func (s *Service) ResolvePlan(ctx context.Context, locationID string, vehicleType VehicleType, asOf time.Time) (*RatePlan, error) {
	return s.resolve(ctx, locationID, vehicleType, asOf)
}

func (s *Service) resolve(ctx context.Context, locationID string, vehicleType VehicleType, asOf time.Time) (*RatePlan, error) {
	if s.plans == nil {
		return nil, &NoRatePlanFoundError{LocationID: locationID, VehicleType: vehicleType, AsOf: asOf}
	}
	plan, err := s.plans.FindActive(ctx, locationID, vehicleType, asOf)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, &NoRatePlanFoundError{LocationID: locationID, VehicleType: vehicleType, AsOf: asOf}
	}
	return plan, nil
}
