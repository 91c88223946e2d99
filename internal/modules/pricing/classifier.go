// README: Duration classifier; turns a stay into a billing band and unit count.
package pricing

import "time"

const (
	monthlyThresholdDays = 28
	weeklyThresholdDays  = 6
	dailyThresholdHours  = 12

	daysPerMonth = 30
	daysPerWeek  = 7
	hoursPerDay  = 24
)

type Classification struct {
	Band         Band
	TotalMinutes int64
	TotalHours   int64
	TotalDays    int64
	// Units is the number of months, weeks, days or hours billed for the band.
	Units int64
}

// Classify picks the largest band whose closed lower bound the stay reaches.
// A stay at or under the grace period is GRACE with no units.
func Classify(entry, exit time.Time, graceMinutes int) (Classification, error) {
	if exit.Before(entry) {
		return Classification{}, &InvalidIntervalError{Entry: entry, Exit: exit}
	}
	d := exit.Sub(entry)
	c := Classification{
		TotalMinutes: ceilDiv(d, time.Minute),
		TotalHours:   ceilDiv(d, time.Hour),
	}
	c.TotalDays = c.TotalHours / hoursPerDay

	switch {
	case c.TotalMinutes <= int64(graceMinutes):
		c.Band = BandGrace
	case c.TotalDays >= monthlyThresholdDays:
		c.Band = BandMonthly
		c.Units = ceilInt(c.TotalDays, daysPerMonth)
	case c.TotalDays >= weeklyThresholdDays:
		c.Band = BandWeekly
		c.Units = ceilInt(c.TotalDays, daysPerWeek)
	case c.TotalHours >= dailyThresholdHours:
		c.Band = BandDaily
		c.Units = ceilInt(c.TotalHours, hoursPerDay)
	default:
		c.Band = BandHourly
		c.Units = c.TotalHours
	}
	return c, nil
}

func ceilDiv(d, unit time.Duration) int64 {
	n := int64(d / unit)
	if d%unit != 0 {
		n++
	}
	return n
}

func ceilInt(n, by int64) int64 {
	return (n + by - 1) / by
}
