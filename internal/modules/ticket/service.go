// README: Ticket service implements check-in, live pricing, checkout and cancellation.
package ticket

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/logger"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("ticket not found")
	ErrConflict     = errors.New("ticket state conflict")
	ErrActiveTicket = errors.New("vehicle already has an active ticket")
	ErrBadRequest   = errors.New("bad request")
)

// Repository persists tickets. Close must only apply when the stored ticket is still in
// status from at version; it reports false otherwise.
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id uuid.UUID) (*Ticket, error)
	GetByNumber(ctx context.Context, number string) (*Ticket, error)
	HasActive(ctx context.Context, locationID, vehicleNumber string) (bool, error)
	Close(ctx context.Context, t *Ticket, from Status, version int) (bool, error)
	List(ctx context.Context, f Filter) ([]Ticket, error)
}

type Pricing interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (pricing.FeeCalculation, error)
	LostTicketFee(ctx context.Context, locationID string, vehicleType pricing.VehicleType) (decimal.Decimal, error)
	ResolvePlan(ctx context.Context, locationID string, vehicleType pricing.VehicleType, asOf time.Time) (*pricing.RatePlan, error)
}

type Service struct {
	store   Repository
	pricing Pricing
	log     *logger.Logger
	now     func() time.Time
}

func NewService(store Repository, pricing Pricing, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, pricing: pricing, log: log.WithField("module", "ticket"), now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

type CheckInCommand struct {
	LocationID    string
	VehicleNumber string
	VehicleType   pricing.VehicleType
	DriverName    string
	PhoneNumber   string
	Notes         string
	OperatorID    string
}

type CheckoutCommand struct {
	TicketID      uuid.UUID
	PaymentMethod PaymentMethod
	LostTicket    bool
	OperatorID    string
}

type CancelCommand struct {
	TicketID   uuid.UUID
	Reason     string
	OperatorID string
}

// AmountDue is a live quote for an open ticket.
type AmountDue struct {
	Ticket      *Ticket                `json:"ticket"`
	Calculation pricing.FeeCalculation `json:"calculation"`
}

func (s *Service) CheckIn(ctx context.Context, cmd CheckInCommand) (*Ticket, error) {
	plate := normalizePlate(cmd.VehicleNumber)
	if cmd.LocationID == "" || plate == "" {
		return nil, ErrBadRequest
	}
	if cmd.VehicleType == "" {
		cmd.VehicleType = pricing.VehicleCar
	}
	if !cmd.VehicleType.Valid() {
		return nil, ErrBadRequest
	}

	active, err := s.store.HasActive(ctx, cmd.LocationID, plate)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveTicket
	}

	now := s.now()
	plan, err := s.pricing.ResolvePlan(ctx, cmd.LocationID, cmd.VehicleType, now)
	if err != nil {
		return nil, err
	}

	t := &Ticket{
		ID:            uuid.New(),
		TicketNumber:  newTicketNumber(now),
		LocationID:    cmd.LocationID,
		VehicleNumber: plate,
		VehicleType:   cmd.VehicleType,
		DriverName:    strings.TrimSpace(cmd.DriverName),
		PhoneNumber:   strings.TrimSpace(cmd.PhoneNumber),
		Notes:         cmd.Notes,
		Status:        StatusActive,
		EntryTime:     now,
		RatePlanID:    &plan.ID,
		CreatedBy:     cmd.OperatorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	s.log.WithFields(map[string]interface{}{
		"ticket_id":     t.ID.String(),
		"ticket_number": t.TicketNumber,
		"location_id":   t.LocationID,
		"vehicle_type":  t.VehicleType,
	}).Info("vehicle checked in")
	return t, nil
}

func (s *Service) AmountDue(ctx context.Context, id uuid.UUID) (*AmountDue, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusActive {
		return nil, ErrInvalidState
	}
	calc, err := s.pricing.Quote(ctx, pricing.QuoteRequest{
		LocationID:  t.LocationID,
		VehicleType: t.VehicleType,
		Entry:       t.EntryTime,
		Exit:        s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &AmountDue{Ticket: t, Calculation: calc}, nil
}

// Checkout prices the stay up to now, optionally adds the lost-ticket penalty and marks
// the ticket paid. A concurrent checkout or cancel of the same ticket yields ErrConflict.
func (s *Service) Checkout(ctx context.Context, cmd CheckoutCommand) (*Ticket, error) {
	if cmd.PaymentMethod == "" {
		cmd.PaymentMethod = PaymentCash
	}
	if !cmd.PaymentMethod.Valid() {
		return nil, ErrBadRequest
	}
	t, err := s.store.Get(ctx, cmd.TicketID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusPaid) {
		return nil, ErrInvalidState
	}

	exit := s.now()
	calc, err := s.pricing.Quote(ctx, pricing.QuoteRequest{
		LocationID:  t.LocationID,
		VehicleType: t.VehicleType,
		Entry:       t.EntryTime,
		Exit:        exit,
	})
	if err != nil {
		return nil, err
	}
	if cmd.LostTicket {
		fee, err := s.pricing.LostTicketFee(ctx, t.LocationID, t.VehicleType)
		if err != nil {
			return nil, err
		}
		calc = pricing.ApplyLostTicket(calc, fee)
	}

	from, version := t.Status, t.StatusVersion
	amount := types.NewMoney(calc.TotalAmount, calc.Currency)
	planID := calc.PlanID
	t.Status = StatusPaid
	t.ExitTime = &exit
	t.Amount = &amount
	t.RatePlanID = &planID
	t.PaymentMethod = cmd.PaymentMethod
	t.LostTicket = cmd.LostTicket
	t.Breakdown = calc.Breakdown
	t.PaidBy = cmd.OperatorID
	t.UpdatedAt = exit

	ok, err := s.store.Close(ctx, t, from, version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	t.StatusVersion = version + 1
	s.log.WithFields(map[string]interface{}{
		"ticket_id":      t.ID.String(),
		"amount":         amount.Amount.StringFixed(types.MinorUnits),
		"currency":       amount.Currency,
		"band":           calc.Band,
		"payment_method": t.PaymentMethod,
		"lost_ticket":    t.LostTicket,
	}).Info("ticket paid")
	return t, nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Ticket, error) {
	t, err := s.store.Get(ctx, cmd.TicketID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}
	from, version := t.Status, t.StatusVersion
	now := s.now()
	t.Status = StatusCancelled
	t.ExitTime = &now
	t.CancelReason = cmd.Reason
	t.UpdatedAt = now

	ok, err := s.store.Close(ctx, t, from, version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	t.StatusVersion = version + 1
	s.log.WithFields(map[string]interface{}{
		"ticket_id": t.ID.String(),
		"reason":    cmd.Reason,
		"operator":  cmd.OperatorID,
	}).Info("ticket cancelled")
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Ticket, error) {
	return s.store.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func (s *Service) List(ctx context.Context, f Filter) ([]Ticket, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrBadRequest
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, ErrBadRequest
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	f.VehicleNumber = normalizePlate(f.VehicleNumber)
	return s.store.List(ctx, f)
}

func normalizePlate(p string) string {
	return strings.ToUpper(strings.Join(strings.Fields(p), ""))
}

const ticketSuffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newTicketNumber renders TKT-<base36 millis>-<3 random base36 chars>.
func newTicketNumber(now time.Time) string {
	var suffix [3]byte
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(ticketSuffixAlphabet))))
		if err != nil {
			n = big.NewInt(now.UnixNano() % int64(len(ticketSuffixAlphabet)))
		}
		suffix[i] = ticketSuffixAlphabet[n.Int64()]
	}
	return "TKT-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + "-" + string(suffix[:])
}
