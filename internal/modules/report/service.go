package report

import (
	"context"
	"errors"
	"time"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/ticket"
)

var ErrBadRequest = errors.New("bad request")

// reportPageSize is how many tickets each listing call of a report reads.
const reportPageSize = 500

type TicketLister interface {
	List(ctx context.Context, f ticket.Filter) ([]ticket.Ticket, error)
}

type Service struct {
	tickets TicketLister
}

func NewService(tickets TicketLister) *Service {
	return &Service{tickets: tickets}
}

func (s *Service) Summary(ctx context.Context, f ticket.Filter) (Summary, error) {
	tickets, err := s.list(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(tickets), nil
}

func (s *Service) Revenue(ctx context.Context, f ticket.Filter, groupBy GroupBy, loc *time.Location) ([]RevenuePoint, error) {
	if groupBy == "" {
		groupBy = GroupDay
	}
	if !groupBy.Valid() {
		return nil, ErrBadRequest
	}
	// Revenue lands when the ticket is paid, so the window applies to exit time.
	f.Status = ticket.StatusPaid
	f.ByExit = true
	tickets, err := s.list(ctx, f)
	if err != nil {
		return nil, err
	}
	return Revenue(tickets, groupBy, loc), nil
}

// list pages through every ticket matching f, oldest first.
func (s *Service) list(ctx context.Context, f ticket.Filter) ([]ticket.Ticket, error) {
	f.Limit = reportPageSize
	f.After = &ticket.Cursor{}
	var all []ticket.Ticket
	for {
		page, err := s.tickets.List(ctx, f)
		if errors.Is(err, ticket.ErrBadRequest) {
			return nil, ErrBadRequest
		}
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < f.Limit {
			return all, nil
		}
		next := ticket.CursorOf(page[len(page)-1], f)
		f.After = &next
	}
}
