package pricing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/infra"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("PARKING_TEST_DSN")
	if dsn == "" {
		t.Skip("PARKING_TEST_DSN not set; skipping DB-backed store tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	root, err := infra.RepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	if err := infra.ApplyMigrations(ctx, db, filepath.Join(root, "migrations")); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE holidays, rate_plans"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return NewStore(db)
}

func storedPlan(mods ...func(*RatePlan)) *RatePlan {
	p := testPlan(mods...)
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	return p
}

func TestStore_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := storedPlan(func(p *RatePlan) {
		p.Timezone = "Asia/Kolkata"
		p.MaxDailyCharge = nullDec("150.50")
		p.NightCharges = nullDec("50")
		p.NightStart, p.NightEnd = tod(22, 0), tod(6, 30)
		p.WeekendMultiplier = nullDec("1.25")
		p.ProgressiveRates = []ProgressiveRate{{Hours: 2, Rate: dec("10")}, {Hours: 3, Rate: dec("7.5")}}
	})
	if err := s.CreatePlan(ctx, p); err != nil {
		t.Fatalf("CreatePlan() error = %v", err)
	}

	got, err := s.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if !got.MaxDailyCharge.Decimal.Equal(dec("150.5")) || !got.WeekendMultiplier.Decimal.Equal(dec("1.25")) {
		t.Errorf("optional amounts not preserved: %+v", got)
	}
	if got.HolidayMultiplier.Valid || got.LostTicketFee.Valid {
		t.Errorf("unset optionals came back set: %+v", got)
	}
	if got.NightEnd == nil || got.NightEnd.String() != "06:30" {
		t.Errorf("NightEnd = %v, want 06:30", got.NightEnd)
	}
	if len(got.ProgressiveRates) != 2 || !got.ProgressiveRates[1].Rate.Equal(dec("7.5")) {
		t.Errorf("ProgressiveRates = %+v", got.ProgressiveRates)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("stored plan no longer validates: %v", err)
	}

	if _, err := s.GetPlan(ctx, uuid.New()); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("GetPlan(unknown) error = %v, want ErrPlanNotFound", err)
	}
}

func TestStore_CreatePlanClosesPreviousVersion(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := storedPlan()
	if err := s.CreatePlan(ctx, first); err != nil {
		t.Fatalf("CreatePlan(first) error = %v", err)
	}
	cutover := first.EffectiveFrom.AddDate(0, 1, 0)
	second := storedPlan(func(p *RatePlan) {
		p.FirstHourRate = dec("9")
		p.EffectiveFrom = cutover
	})
	if err := s.CreatePlan(ctx, second); err != nil {
		t.Fatalf("CreatePlan(second) error = %v", err)
	}

	before, err := s.FindActive(ctx, "loc-1", VehicleCar, cutover.Add(-time.Minute))
	if err != nil {
		t.Fatalf("FindActive(before) error = %v", err)
	}
	if before.ID != first.ID {
		t.Errorf("before cutover got %s, want %s", before.ID, first.ID)
	}
	if before.EffectiveTo == nil || !before.EffectiveTo.Equal(cutover) {
		t.Errorf("previous plan EffectiveTo = %v, want %s", before.EffectiveTo, cutover)
	}

	after, err := s.FindActive(ctx, "loc-1", VehicleCar, cutover)
	if err != nil {
		t.Fatalf("FindActive(after) error = %v", err)
	}
	if after.ID != second.ID {
		t.Errorf("after cutover got %s, want %s", after.ID, second.ID)
	}

	_, err = s.FindActive(ctx, "loc-1", VehicleBus, cutover)
	if !errors.Is(err, ErrNoRatePlan) {
		t.Errorf("FindActive(bus) error = %v, want ErrNoRatePlan", err)
	}
}

func TestStore_DeactivateAndEnded(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	to := baseTime
	expiring := storedPlan(func(p *RatePlan) { p.EffectiveTo = &to })
	bus := storedPlan(func(p *RatePlan) { p.VehicleType = VehicleBus })
	for _, p := range []*RatePlan{expiring, bus} {
		if err := s.CreatePlan(ctx, p); err != nil {
			t.Fatalf("CreatePlan() error = %v", err)
		}
	}

	scopes, err := s.EndedBetween(ctx, baseTime.Add(-time.Minute), baseTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("EndedBetween() error = %v", err)
	}
	if len(scopes) != 1 || scopes[0] != (PlanScope{LocationID: "loc-1", VehicleType: VehicleCar}) {
		t.Errorf("EndedBetween() scopes = %+v", scopes)
	}
	if later, err := s.EndedBetween(ctx, baseTime.Add(time.Minute), baseTime.Add(time.Hour)); err != nil || len(later) != 0 {
		t.Errorf("EndedBetween(later window) = %+v, %v", later, err)
	}

	scope, err := s.DeactivatePlan(ctx, bus.ID)
	if err != nil {
		t.Fatalf("DeactivatePlan() error = %v", err)
	}
	if scope.VehicleType != VehicleBus {
		t.Errorf("scope = %+v", scope)
	}
	active, err := s.ListPlans(ctx, "loc-1", true)
	if err != nil {
		t.Fatalf("ListPlans() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != expiring.ID {
		t.Errorf("active plans = %+v, want only the ended car plan", active)
	}
	all, err := s.ListPlans(ctx, "loc-1", false)
	if err != nil {
		t.Fatalf("ListPlans(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all plans = %d, want 2", len(all))
	}
}

func TestStore_SupersededPlanStillPricesOlderEntries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := storedPlan()
	if err := s.CreatePlan(ctx, first); err != nil {
		t.Fatalf("CreatePlan(first) error = %v", err)
	}
	cutover := first.EffectiveFrom.Add(72 * time.Hour)
	second := storedPlan(func(p *RatePlan) {
		p.FirstHourRate = dec("9")
		p.EffectiveFrom = cutover
	})
	if err := s.CreatePlan(ctx, second); err != nil {
		t.Fatalf("CreatePlan(second) error = %v", err)
	}

	if _, err := s.EndedBetween(ctx, time.Time{}, cutover.Add(time.Hour)); err != nil {
		t.Fatalf("EndedBetween() error = %v", err)
	}

	got, err := s.FindActive(ctx, "loc-1", VehicleCar, cutover.Add(-time.Hour))
	if err != nil {
		t.Fatalf("FindActive(before cutover) error = %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("before cutover got %s, want %s", got.ID, first.ID)
	}
}

func TestStore_Holidays(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC)
	if err := s.AddHoliday(ctx, "loc-1", day, "Republic Day"); err != nil {
		t.Fatalf("AddHoliday() error = %v", err)
	}
	if err := s.AddHoliday(ctx, "loc-1", day, "Republic Day (renamed)"); err != nil {
		t.Fatalf("AddHoliday(upsert) error = %v", err)
	}

	set, err := s.Holidays(ctx, "loc-1", day.Add(10*time.Hour), day.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("Holidays() error = %v", err)
	}
	if !set.Contains(day) {
		t.Errorf("holiday set %v missing %s", set, day.Format(dateKey))
	}
	other, err := s.Holidays(ctx, "loc-2", day, day)
	if err != nil {
		t.Fatalf("Holidays(loc-2) error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("holidays leaked across locations: %v", other)
	}
}
