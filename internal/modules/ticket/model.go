// README: Parking ticket aggregate and status definitions.
package ticket

import (
	"time"

	"github.com/google/uuid"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/types"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentMobile PaymentMethod = "MOBILE"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobile:
		return true
	}
	return false
}

type Ticket struct {
	ID            uuid.UUID               `json:"id"`
	TicketNumber  string                  `json:"ticket_number"`
	LocationID    string                  `json:"location_id"`
	VehicleNumber string                  `json:"vehicle_number"`
	VehicleType   pricing.VehicleType     `json:"vehicle_type"`
	DriverName    string                  `json:"driver_name,omitempty"`
	PhoneNumber   string                  `json:"phone_number,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	Status        Status                  `json:"status"`
	StatusVersion int                     `json:"status_version"`
	EntryTime     time.Time               `json:"entry_time"`
	ExitTime      *time.Time              `json:"exit_time,omitempty"`
	RatePlanID    *uuid.UUID              `json:"rate_plan_id,omitempty"`
	Amount        *types.Money            `json:"amount,omitempty"`
	PaymentMethod PaymentMethod           `json:"payment_method,omitempty"`
	LostTicket    bool                    `json:"lost_ticket"`
	Breakdown     []pricing.BreakdownLine `json:"breakdown,omitempty"`
	CancelReason  string                  `json:"cancel_reason,omitempty"`
	CreatedBy     string                  `json:"created_by"`
	PaidBy        string                  `json:"paid_by,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// DurationMinutes is the billed stay length, rounded up to whole minutes. Open
// tickets are measured up to now.
func (t *Ticket) DurationMinutes(now time.Time) int64 {
	end := now
	if t.ExitTime != nil {
		end = *t.ExitTime
	}
	d := end.Sub(t.EntryTime)
	if d <= 0 {
		return 0
	}
	return int64((d + time.Minute - 1) / time.Minute)
}

// AllowedTransitions represents the ticket state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusActive: {StatusPaid, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Filter narrows List. Zero fields do not filter; From/To bound EntryTime.
type Filter struct {
	LocationID    string
	Status        Status
	VehicleNumber string
	From          time.Time
	To            time.Time
	Limit         int

	// ByExit applies From/To to exit_time and skips tickets that have not left.
	ByExit bool
	// After switches to oldest-first order and resumes strictly after the cursor.
	// A zero cursor starts at the beginning.
	After *Cursor
}

// Cursor is a position in the (time, id) order of a listing.
type Cursor struct {
	At time.Time
	ID uuid.UUID
}

// CursorOf returns the position of t in a listing filtered by f.
func CursorOf(t Ticket, f Filter) Cursor {
	at := t.EntryTime
	if f.ByExit && t.ExitTime != nil {
		at = *t.ExitTime
	}
	return Cursor{At: at, ID: t.ID}
}
