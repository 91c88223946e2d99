// README: Rate plan administration: versioned plan creation, defaults, holidays and ended-range sweeps.
package rateplan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/logger"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
)

var (
	ErrNotFound   = errors.New("rate plan not found")
	ErrBadRequest = errors.New("bad request")
)

// Store is the persistence the service needs; *pricing.Store satisfies it.
type Store interface {
	CreatePlan(ctx context.Context, p *pricing.RatePlan) error
	GetPlan(ctx context.Context, id uuid.UUID) (*pricing.RatePlan, error)
	ListPlans(ctx context.Context, locationID string, activeOnly bool) ([]pricing.RatePlan, error)
	DeactivatePlan(ctx context.Context, id uuid.UUID) (pricing.PlanScope, error)
	EndedBetween(ctx context.Context, after, upTo time.Time) ([]pricing.PlanScope, error)
	AddHoliday(ctx context.Context, locationID string, day time.Time, name string) error
}

// Invalidator drops cached lookups for a scope after its plans change.
type Invalidator interface {
	Invalidate(ctx context.Context, scope pricing.PlanScope) error
}

type Defaults struct {
	Currency string
	Timezone string
}

type Service struct {
	store    Store
	cache    Invalidator
	defaults Defaults
	log      *logger.Logger
	now      func() time.Time
	sweep    *sweepMark
}

// sweepMark is the upper bound of the last successful SweepEnded.
type sweepMark struct {
	mu   sync.Mutex
	last time.Time
}

func NewService(store Store, cache Invalidator, defaults Defaults, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, cache: cache, defaults: defaults, log: log.WithField("module", "rateplan"), now: time.Now, sweep: &sweepMark{}}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Create stores p as the new version for its location and vehicle type. ID, timestamps
// and Active are assigned here; an empty currency, time zone or EffectiveFrom takes the
// service default.
func (s *Service) Create(ctx context.Context, p pricing.RatePlan) (*pricing.RatePlan, error) {
	now := s.now().UTC()
	p.ID = uuid.New()
	p.Active = true
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Currency == "" {
		p.Currency = s.defaults.Currency
	}
	if p.Timezone == "" {
		p.Timezone = s.defaults.Timezone
	}
	if p.EffectiveFrom.IsZero() {
		p.EffectiveFrom = now
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreatePlan(ctx, &p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, pricing.PlanScope{LocationID: p.LocationID, VehicleType: p.VehicleType})
	s.log.WithFields(map[string]interface{}{
		"plan_id":        p.ID.String(),
		"location_id":    p.LocationID,
		"vehicle_type":   p.VehicleType,
		"effective_from": p.EffectiveFrom,
	}).Info("rate plan created")
	return &p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*pricing.RatePlan, error) {
	p, err := s.store.GetPlan(ctx, id)
	if errors.Is(err, pricing.ErrPlanNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *Service) List(ctx context.Context, locationID string, activeOnly bool) ([]pricing.RatePlan, error) {
	if locationID == "" {
		return nil, ErrBadRequest
	}
	return s.store.ListPlans(ctx, locationID, activeOnly)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	scope, err := s.store.DeactivatePlan(ctx, id)
	if errors.Is(err, pricing.ErrPlanNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, scope)
	s.log.WithField("plan_id", id.String()).Info("rate plan deactivated")
	return nil
}

// SeedDefaults creates the stock plan for every vehicle type at a location, effective now.
func (s *Service) SeedDefaults(ctx context.Context, locationID string) ([]pricing.RatePlan, error) {
	if locationID == "" {
		return nil, ErrBadRequest
	}
	defaults := pricing.DefaultPlans(locationID, s.defaults.Currency, s.defaults.Timezone, s.now().UTC())
	created := make([]pricing.RatePlan, 0, len(defaults))
	for _, p := range defaults {
		stored, err := s.Create(ctx, p)
		if err != nil {
			return created, err
		}
		created = append(created, *stored)
	}
	return created, nil
}

func (s *Service) AddHoliday(ctx context.Context, locationID string, day time.Time, name string) error {
	if locationID == "" || day.IsZero() {
		return ErrBadRequest
	}
	return s.store.AddHoliday(ctx, locationID, day, name)
}

// SweepEnded drops cached lookups for plans whose range closed since the previous sweep.
// Ended plans are not deactivated; tickets that entered before EffectiveTo keep resolving them.
func (s *Service) SweepEnded(ctx context.Context) (int, error) {
	s.sweep.mu.Lock()
	defer s.sweep.mu.Unlock()

	upTo := s.now()
	scopes, err := s.store.EndedBetween(ctx, s.sweep.last, upTo)
	if err != nil {
		return 0, err
	}
	for _, sc := range scopes {
		s.invalidate(ctx, sc)
	}
	s.sweep.last = upTo
	if len(scopes) > 0 {
		s.log.WithField("count", len(scopes)).Info("rate plan ranges ended")
	}
	return len(scopes), nil
}

func (s *Service) invalidate(ctx context.Context, scope pricing.PlanScope) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scope); err != nil {
		s.log.WithError(err).WithField("location_id", scope.LocationID).Warn("plan cache invalidation failed")
	}
}
