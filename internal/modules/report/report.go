// README: Ticket reports: status counts, revenue totals and revenue over time.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/ticket"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/types"
)

type Summary struct {
	TotalTickets         int                        `json:"total_tickets"`
	ActiveTickets        int                        `json:"active_tickets"`
	PaidTickets          int                        `json:"paid_tickets"`
	CancelledTickets     int                        `json:"cancelled_tickets"`
	LostTickets          int                        `json:"lost_tickets"`
	Revenue              decimal.Decimal            `json:"revenue"`
	AverageDurationMins  int64                      `json:"average_duration_minutes"`
	RevenueByMethod      map[string]decimal.Decimal `json:"revenue_by_payment_method"`
	RevenueByVehicleType map[string]decimal.Decimal `json:"revenue_by_vehicle_type"`
}

// Summarize aggregates tickets. Revenue and average duration only count paid tickets.
func Summarize(tickets []ticket.Ticket) Summary {
	s := Summary{
		Revenue:              decimal.Zero,
		RevenueByMethod:      map[string]decimal.Decimal{},
		RevenueByVehicleType: map[string]decimal.Decimal{},
	}
	var paidMinutes int64
	for i := range tickets {
		t := &tickets[i]
		s.TotalTickets++
		switch t.Status {
		case ticket.StatusActive:
			s.ActiveTickets++
		case ticket.StatusCancelled:
			s.CancelledTickets++
		case ticket.StatusPaid:
			s.PaidTickets++
			if t.LostTicket {
				s.LostTickets++
			}
			amount := paidAmount(t)
			s.Revenue = s.Revenue.Add(amount)
			s.RevenueByMethod[string(t.PaymentMethod)] = s.RevenueByMethod[string(t.PaymentMethod)].Add(amount)
			s.RevenueByVehicleType[string(t.VehicleType)] = s.RevenueByVehicleType[string(t.VehicleType)].Add(amount)
			if t.ExitTime != nil {
				paidMinutes += t.DurationMinutes(*t.ExitTime)
			}
		}
	}
	if s.PaidTickets > 0 {
		s.AverageDurationMins = paidMinutes / int64(s.PaidTickets)
	}
	s.Revenue = types.RoundAmount(s.Revenue)
	return s
}

type GroupBy string

const (
	GroupHour  GroupBy = "hour"
	GroupDay   GroupBy = "day"
	GroupWeek  GroupBy = "week"
	GroupMonth GroupBy = "month"
)

func (g GroupBy) Valid() bool {
	switch g {
	case GroupHour, GroupDay, GroupWeek, GroupMonth:
		return true
	}
	return false
}

type RevenuePoint struct {
	Period  string          `json:"period"`
	Start   time.Time       `json:"start"`
	Tickets int             `json:"tickets"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Revenue buckets paid tickets by exit time in loc. Week keys are ISO weeks (2026-W07).
func Revenue(tickets []ticket.Ticket, groupBy GroupBy, loc *time.Location) []RevenuePoint {
	if loc == nil {
		loc = time.UTC
	}
	buckets := map[string]*RevenuePoint{}
	for i := range tickets {
		t := &tickets[i]
		if t.Status != ticket.StatusPaid || t.ExitTime == nil {
			continue
		}
		key, start := period(t.ExitTime.In(loc), groupBy)
		p, ok := buckets[key]
		if !ok {
			p = &RevenuePoint{Period: key, Start: start, Revenue: decimal.Zero}
			buckets[key] = p
		}
		p.Tickets++
		p.Revenue = p.Revenue.Add(paidAmount(t))
	}

	out := make([]RevenuePoint, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func period(t time.Time, g GroupBy) (string, time.Time) {
	y, m, d := t.Date()
	switch g {
	case GroupHour:
		start := time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
		return start.Format("2006-01-02T15:00"), start
	case GroupWeek:
		wy, wk := t.ISOWeek()
		offset := (int(t.Weekday()) + 6) % 7
		start := time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
		return fmt.Sprintf("%04d-W%02d", wy, wk), start
	case GroupMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
		return start.Format("2006-01"), start
	default:
		start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		return start.Format("2006-01-02"), start
	}
}

func paidAmount(t *ticket.Ticket) decimal.Decimal {
	if t.Amount == nil {
		return decimal.Zero
	}
	return t.Amount.Amount
}
