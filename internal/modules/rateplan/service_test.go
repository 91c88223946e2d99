package rateplan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
)

// ---------------------------------------------------------------------------
// In-memory collaborators
// ---------------------------------------------------------------------------

type memStore struct {
	mu       sync.Mutex
	plans    map[uuid.UUID]pricing.RatePlan
	holidays map[string][]time.Time
}

func newMemStore() *memStore {
	return &memStore{plans: map[uuid.UUID]pricing.RatePlan{}, holidays: map[string][]time.Time{}}
}

func (m *memStore) CreatePlan(_ context.Context, p *pricing.RatePlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, old := range m.plans {
		if old.LocationID == p.LocationID && old.VehicleType == p.VehicleType && old.Active && old.EffectiveTo == nil {
			to := p.EffectiveFrom
			old.EffectiveTo = &to
			m.plans[id] = old
		}
	}
	m.plans[p.ID] = *p
	return nil
}

func (m *memStore) GetPlan(_ context.Context, id uuid.UUID) (*pricing.RatePlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, pricing.ErrPlanNotFound
	}
	return &p, nil
}

func (m *memStore) ListPlans(_ context.Context, locationID string, activeOnly bool) ([]pricing.RatePlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []pricing.RatePlan
	for _, p := range m.plans {
		if p.LocationID == locationID && (!activeOnly || p.Active) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) DeactivatePlan(_ context.Context, id uuid.UUID) (pricing.PlanScope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return pricing.PlanScope{}, pricing.ErrPlanNotFound
	}
	p.Active = false
	m.plans[id] = p
	return pricing.PlanScope{LocationID: p.LocationID, VehicleType: p.VehicleType}, nil
}

func (m *memStore) EndedBetween(_ context.Context, after, upTo time.Time) ([]pricing.PlanScope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var scopes []pricing.PlanScope
	for _, p := range m.plans {
		if p.Active && p.EffectiveTo != nil && p.EffectiveTo.After(after) && !p.EffectiveTo.After(upTo) {
			scopes = append(scopes, pricing.PlanScope{LocationID: p.LocationID, VehicleType: p.VehicleType})
		}
	}
	return scopes, nil
}

func (m *memStore) AddHoliday(_ context.Context, locationID string, day time.Time, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[locationID] = append(m.holidays[locationID], day)
	return nil
}

type recordingInvalidator struct {
	mu     sync.Mutex
	scopes []pricing.PlanScope
	err    error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, scope pricing.PlanScope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes = append(r.scopes, scope)
	return r.err
}

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService(store Store, inv Invalidator) *Service {
	return NewService(store, inv, Defaults{Currency: "INR", Timezone: "Asia/Kolkata"}, nil).
		WithClock(func() time.Time { return now })
}

func carPlan() pricing.RatePlan {
	return pricing.RatePlan{
		LocationID:         "loc-1",
		VehicleType:        pricing.VehicleCar,
		FirstHourRate:      decimal.NewFromInt(20),
		AdditionalHourRate: decimal.NewFromInt(15),
		DailyRate:          decimal.NewFromInt(200),
		GracePeriodMinutes: 10,
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestService_CreateAppliesDefaults(t *testing.T) {
	inv := &recordingInvalidator{}
	s := newTestService(newMemStore(), inv)

	got, err := s.Create(context.Background(), carPlan())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.ID == uuid.Nil || !got.Active {
		t.Errorf("ID/Active not assigned: %+v", got)
	}
	if got.Currency != "INR" || got.Timezone != "Asia/Kolkata" {
		t.Errorf("currency/timezone = %s/%s", got.Currency, got.Timezone)
	}
	if !got.EffectiveFrom.Equal(now) {
		t.Errorf("EffectiveFrom = %s, want %s", got.EffectiveFrom, now)
	}
	want := pricing.PlanScope{LocationID: "loc-1", VehicleType: pricing.VehicleCar}
	if len(inv.scopes) != 1 || inv.scopes[0] != want {
		t.Errorf("invalidated = %+v, want [%+v]", inv.scopes, want)
	}
}

func TestService_CreateRejectsInvalidPlan(t *testing.T) {
	store := newMemStore()
	s := newTestService(store, nil)

	p := carPlan()
	p.WeekendMultiplier = decimal.NewNullDecimal(decimal.NewFromFloat(0.5))
	_, err := s.Create(context.Background(), p)

	var target *pricing.InvalidRatePlanError
	if !errors.As(err, &target) || target.Field != "weekend_multiplier" {
		t.Fatalf("Create() error = %v, want InvalidRatePlanError on weekend_multiplier", err)
	}
	if len(store.plans) != 0 {
		t.Errorf("invalid plan was stored")
	}
}

func TestService_GetAndDeactivate(t *testing.T) {
	inv := &recordingInvalidator{}
	s := newTestService(newMemStore(), inv)
	ctx := context.Background()

	created, err := s.Create(ctx, carPlan())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.Get(ctx, created.ID); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := s.Get(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}

	if err := s.Deactivate(ctx, created.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if err := s.Deactivate(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Deactivate(unknown) error = %v, want ErrNotFound", err)
	}
	active, _ := s.List(ctx, "loc-1", true)
	if len(active) != 0 {
		t.Errorf("active plans after deactivate = %d", len(active))
	}
	if len(inv.scopes) != 2 {
		t.Errorf("invalidations = %d, want 2", len(inv.scopes))
	}
}

func TestService_InvalidationFailureDoesNotFailWrite(t *testing.T) {
	s := newTestService(newMemStore(), &recordingInvalidator{err: errors.New("redis down")})
	if _, err := s.Create(context.Background(), carPlan()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestService_SeedDefaults(t *testing.T) {
	s := newTestService(newMemStore(), nil)
	plans, err := s.SeedDefaults(context.Background(), "loc-9")
	if err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	if len(plans) != len(pricing.VehicleTypes) {
		t.Fatalf("seeded %d plans, want %d", len(plans), len(pricing.VehicleTypes))
	}
	seen := map[pricing.VehicleType]bool{}
	for _, p := range plans {
		if p.LocationID != "loc-9" || p.Currency != "INR" {
			t.Errorf("unexpected plan %+v", p)
		}
		seen[p.VehicleType] = true
	}
	if len(seen) != len(pricing.VehicleTypes) {
		t.Errorf("vehicle types covered = %d", len(seen))
	}

	if _, err := s.SeedDefaults(context.Background(), ""); !errors.Is(err, ErrBadRequest) {
		t.Errorf("SeedDefaults(\"\") error = %v, want ErrBadRequest", err)
	}
}

func TestService_SweepEnded(t *testing.T) {
	store := newMemStore()
	inv := &recordingInvalidator{}
	s := newTestService(store, inv)
	ctx := context.Background()

	p := carPlan()
	p.EffectiveFrom = now.Add(-48 * time.Hour)
	to := now.Add(-time.Hour)
	p.EffectiveTo = &to
	ended, err := s.Create(ctx, p)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.Create(ctx, func() pricing.RatePlan { b := carPlan(); b.VehicleType = pricing.VehicleBus; return b }()); err != nil {
		t.Fatalf("Create(bus) error = %v", err)
	}
	inv.scopes = nil

	n, err := s.SweepEnded(ctx)
	if err != nil {
		t.Fatalf("SweepEnded() error = %v", err)
	}
	if n != 1 {
		t.Errorf("ended = %d, want 1", n)
	}
	if len(inv.scopes) != 1 || inv.scopes[0].VehicleType != pricing.VehicleCar {
		t.Errorf("invalidated = %+v", inv.scopes)
	}

	got, err := s.Get(ctx, ended.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Active || !got.AppliesAt(to.Add(-time.Minute)) {
		t.Errorf("ended plan no longer prices stays inside its range: %+v", got)
	}

	if n, err := s.SweepEnded(ctx); err != nil || n != 0 {
		t.Errorf("second SweepEnded() = %d, %v; want 0, nil", n, err)
	}
}

func TestService_AddHoliday(t *testing.T) {
	store := newMemStore()
	s := newTestService(store, nil)
	ctx := context.Background()

	if err := s.AddHoliday(ctx, "loc-1", now, "Holi"); err != nil {
		t.Fatalf("AddHoliday() error = %v", err)
	}
	if len(store.holidays["loc-1"]) != 1 {
		t.Errorf("holiday not stored")
	}
	if err := s.AddHoliday(ctx, "", now, "x"); !errors.Is(err, ErrBadRequest) {
		t.Errorf("AddHoliday(no location) error = %v", err)
	}
}
