package pricing

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInterval = errors.New("invalid stay interval")
	ErrNoRatePlan      = errors.New("no rate plan found")
	ErrInvalidRatePlan = errors.New("invalid rate plan")
)

// InvalidIntervalError is returned when exit precedes entry.
type InvalidIntervalError struct {
	Entry time.Time
	Exit  time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("%s: exit %s precedes entry %s",
		ErrInvalidInterval, e.Exit.Format(time.RFC3339), e.Entry.Format(time.RFC3339))
}

func (e *InvalidIntervalError) Unwrap() error { return ErrInvalidInterval }

// NoRatePlanFoundError is returned when no active plan covers the scope at AsOf.
type NoRatePlanFoundError struct {
	LocationID  string
	VehicleType VehicleType
	AsOf        time.Time
}

func (e *NoRatePlanFoundError) Error() string {
	return fmt.Sprintf("%s for location %s, vehicle type %s at %s",
		ErrNoRatePlan, e.LocationID, e.VehicleType, e.AsOf.Format(time.RFC3339))
}

func (e *NoRatePlanFoundError) Unwrap() error { return ErrNoRatePlan }

type InvalidRatePlanError struct {
	Field  string
	Reason string
}

func (e *InvalidRatePlanError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRatePlan, e.Field, e.Reason)
}

func (e *InvalidRatePlanError) Unwrap() error { return ErrInvalidRatePlan }
