package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/ticket"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/types"
)

var day = time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC) // Monday, ISO week 7

func paid(entry time.Time, stay time.Duration, amount string, method ticket.PaymentMethod, vt pricing.VehicleType) ticket.Ticket {
	exit := entry.Add(stay)
	m := types.NewMoney(decimal.RequireFromString(amount), "INR")
	return ticket.Ticket{
		Status:        ticket.StatusPaid,
		VehicleType:   vt,
		EntryTime:     entry,
		ExitTime:      &exit,
		Amount:        &m,
		PaymentMethod: method,
	}
}

func fixture() []ticket.Ticket {
	lost := paid(day.Add(9*time.Hour), 30*time.Minute, "220", ticket.PaymentCash, pricing.VehicleCar)
	lost.LostTicket = true
	return []ticket.Ticket{
		paid(day.Add(8*time.Hour), 2*time.Hour, "35", ticket.PaymentCash, pricing.VehicleCar),
		paid(day.Add(10*time.Hour), 90*time.Minute, "20.50", ticket.PaymentCard, pricing.VehicleTwoWheeler),
		lost,
		paid(day.AddDate(0, 0, 7).Add(8*time.Hour), time.Hour, "20", ticket.PaymentMobile, pricing.VehicleCar),
		{Status: ticket.StatusActive, VehicleType: pricing.VehicleCar, EntryTime: day},
		{Status: ticket.StatusCancelled, VehicleType: pricing.VehicleBus, EntryTime: day},
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(fixture())

	if got.TotalTickets != 6 || got.ActiveTickets != 1 || got.PaidTickets != 4 || got.CancelledTickets != 1 || got.LostTickets != 1 {
		t.Errorf("counts = %+v", got)
	}
	if !got.Revenue.Equal(decimal.RequireFromString("295.5")) {
		t.Errorf("Revenue = %s, want 295.5", got.Revenue)
	}
	// (120 + 90 + 30 + 60) / 4
	if got.AverageDurationMins != 75 {
		t.Errorf("AverageDurationMins = %d, want 75", got.AverageDurationMins)
	}
	if !got.RevenueByMethod["CASH"].Equal(decimal.NewFromInt(255)) {
		t.Errorf("CASH revenue = %s", got.RevenueByMethod["CASH"])
	}
	if !got.RevenueByVehicleType["TWO_WHEELER"].Equal(decimal.RequireFromString("20.5")) {
		t.Errorf("TWO_WHEELER revenue = %s", got.RevenueByVehicleType["TWO_WHEELER"])
	}
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	if got.TotalTickets != 0 || !got.Revenue.IsZero() || got.AverageDurationMins != 0 {
		t.Errorf("empty summary = %+v", got)
	}
}

func TestRevenue(t *testing.T) {
	tests := []struct {
		groupBy GroupBy
		periods []string
		amounts []string
	}{
		{GroupHour, []string{"2026-02-09T09:00", "2026-02-09T10:00", "2026-02-09T11:00", "2026-02-16T09:00"}, []string{"220", "35", "20.5", "20"}},
		{GroupDay, []string{"2026-02-09", "2026-02-16"}, []string{"275.5", "20"}},
		{GroupWeek, []string{"2026-W07", "2026-W08"}, []string{"275.5", "20"}},
		{GroupMonth, []string{"2026-02"}, []string{"295.5"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.groupBy), func(t *testing.T) {
			got := Revenue(fixture(), tt.groupBy, time.UTC)
			if len(got) != len(tt.periods) {
				t.Fatalf("got %d points (%+v), want %d", len(got), got, len(tt.periods))
			}
			for i, p := range got {
				if p.Period != tt.periods[i] {
					t.Errorf("point %d period = %s, want %s", i, p.Period, tt.periods[i])
				}
				if !p.Revenue.Equal(decimal.RequireFromString(tt.amounts[i])) {
					t.Errorf("point %d revenue = %s, want %s", i, p.Revenue, tt.amounts[i])
				}
			}
		})
	}
}

func TestRevenue_UsesLocationForBuckets(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 20:00 UTC is 01:30 the next day in India.
	tk := paid(day.Add(19*time.Hour), time.Hour, "10", ticket.PaymentCash, pricing.VehicleCar)
	got := Revenue([]ticket.Ticket{tk}, GroupDay, ist)
	if len(got) != 1 || got[0].Period != "2026-02-10" {
		t.Fatalf("got %+v, want a single 2026-02-10 bucket", got)
	}
}

type stubLister struct {
	tickets []ticket.Ticket
	last    ticket.Filter
}

func (s *stubLister) List(_ context.Context, f ticket.Filter) ([]ticket.Ticket, error) {
	s.last = f
	return s.tickets, nil
}

func TestService(t *testing.T) {
	lister := &stubLister{tickets: fixture()}
	svc := NewService(lister)
	ctx := context.Background()

	sum, err := svc.Summary(ctx, ticket.Filter{LocationID: "loc-1"})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.TotalTickets != 6 || lister.last.Limit != reportPageSize || lister.last.After == nil {
		t.Errorf("summary = %+v, filter = %+v", sum, lister.last)
	}

	if _, err := svc.Revenue(ctx, ticket.Filter{}, "", nil); err != nil {
		t.Fatalf("Revenue() error = %v", err)
	}
	if lister.last.Status != ticket.StatusPaid || !lister.last.ByExit {
		t.Errorf("revenue listing filter = %+v, want PAID by exit time", lister.last)
	}
	if _, err := svc.Revenue(ctx, ticket.Filter{}, "fortnight", nil); !errors.Is(err, ErrBadRequest) {
		t.Errorf("Revenue(fortnight) error = %v, want ErrBadRequest", err)
	}
}

// pagedLister honours Limit, After and the exit-time window like the pgx store.
type pagedLister struct {
	tickets []ticket.Ticket // oldest first
	calls   int
}

func (p *pagedLister) List(_ context.Context, f ticket.Filter) ([]ticket.Ticket, error) {
	p.calls++
	var out []ticket.Ticket
	for _, tk := range p.tickets {
		at := tk.EntryTime
		if f.ByExit {
			if tk.ExitTime == nil {
				continue
			}
			at = *tk.ExitTime
		}
		if (!f.From.IsZero() && at.Before(f.From)) || (!f.To.IsZero() && at.After(f.To)) {
			continue
		}
		if f.After != nil && !f.After.At.IsZero() {
			c := ticket.CursorOf(tk, f)
			if c.At.Before(f.After.At) || (c.At.Equal(f.After.At) && c.ID.String() <= f.After.ID.String()) {
				continue
			}
		}
		out = append(out, tk)
		if len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func TestService_ReadsEveryPage(t *testing.T) {
	lister := &pagedLister{}
	for i := 0; i < 1500; i++ {
		tk := paid(day.Add(time.Duration(i)*time.Minute), 30*time.Minute, "10", ticket.PaymentCash, pricing.VehicleCar)
		tk.ID = uuid.New()
		lister.tickets = append(lister.tickets, tk)
	}
	svc := NewService(lister)

	sum, err := svc.Summary(context.Background(), ticket.Filter{})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.PaidTickets != 1500 || !sum.Revenue.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("paid = %d revenue = %s, want 1500 and 15000", sum.PaidTickets, sum.Revenue)
	}
	if lister.calls != 4 {
		t.Errorf("List calls = %d, want 4", lister.calls)
	}
}

func TestService_RevenueWindowUsesExitTime(t *testing.T) {
	overnight := paid(day.Add(-time.Hour), 2*time.Hour, "40", ticket.PaymentCard, pricing.VehicleCar)
	overnight.ID = uuid.New()
	earlier := paid(day.Add(-5*time.Hour), time.Hour, "15", ticket.PaymentCash, pricing.VehicleCar)
	earlier.ID = uuid.New()
	svc := NewService(&pagedLister{tickets: []ticket.Ticket{earlier, overnight}})

	points, err := svc.Revenue(context.Background(), ticket.Filter{From: day, To: day.Add(24*time.Hour - time.Nanosecond)}, GroupDay, time.UTC)
	if err != nil {
		t.Fatalf("Revenue() error = %v", err)
	}
	if len(points) != 1 || !points[0].Revenue.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("points = %+v, want one day of 40", points)
	}
}
