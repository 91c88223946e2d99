package rateplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/logger"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
)

// Cache is a read-through Redis cache in front of a RatePlanRepository. A cached plan is
// only served when it applies at the requested instant; otherwise the lookup goes to the
// underlying repository. Redis failures degrade to uncached lookups.
type Cache struct {
	next pricing.RatePlanRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  *logger.Logger
	now  func() time.Time
}

func NewCache(next pricing.RatePlanRepository, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Discard()
	}
	return &Cache{next: next, rdb: rdb, ttl: ttl, log: log.WithField("component", "plan_cache"), now: time.Now}
}

func cacheKey(scope pricing.PlanScope) string {
	return fmt.Sprintf("parking:rateplan:%s:%s", scope.LocationID, scope.VehicleType)
}

func (c *Cache) FindActive(ctx context.Context, locationID string, vehicleType pricing.VehicleType, asOf time.Time) (*pricing.RatePlan, error) {
	key := cacheKey(pricing.PlanScope{LocationID: locationID, VehicleType: vehicleType})

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p pricing.RatePlan
		if err := json.Unmarshal(raw, &p); err == nil && p.AppliesAt(asOf) {
			return &p, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.WithError(err).Warn("plan cache read failed")
	}

	p, err := c.next.FindActive(ctx, locationID, vehicleType, asOf)
	if err != nil {
		return nil, err
	}
	// Only the plan in force now is worth caching; historical lookups pass through.
	if p.AppliesAt(c.now()) {
		if raw, err := json.Marshal(p); err == nil {
			if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.log.WithError(err).Warn("plan cache write failed")
			}
		}
	}
	return p, nil
}

func (c *Cache) Invalidate(ctx context.Context, scope pricing.PlanScope) error {
	return c.rdb.Del(ctx, cacheKey(scope)).Err()
}
