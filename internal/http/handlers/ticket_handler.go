// README: Ticket handlers for check-in, amount due, checkout, cancel and listing.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/http/middleware"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/ticket"
)

type TicketService interface {
	CheckIn(ctx context.Context, cmd ticket.CheckInCommand) (*ticket.Ticket, error)
	AmountDue(ctx context.Context, id uuid.UUID) (*ticket.AmountDue, error)
	Checkout(ctx context.Context, cmd ticket.CheckoutCommand) (*ticket.Ticket, error)
	Cancel(ctx context.Context, cmd ticket.CancelCommand) (*ticket.Ticket, error)
	Get(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*ticket.Ticket, error)
	List(ctx context.Context, f ticket.Filter) ([]ticket.Ticket, error)
}

type TicketHandler struct {
	tickets TicketService
}

func NewTicketHandler(svc TicketService) *TicketHandler {
	return &TicketHandler{tickets: svc}
}

type checkInReq struct {
	LocationID    string `json:"location_id"`
	VehicleNumber string `json:"vehicle_number" binding:"required"`
	VehicleType   string `json:"vehicle_type"`
	DriverName    string `json:"driver_name"`
	PhoneNumber   string `json:"phone_number"`
	Notes         string `json:"notes"`
}

func (h *TicketHandler) CheckIn(c *gin.Context) {
	var req checkInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	// Attendants always check in at their own location.
	if loc := middleware.CallerLocation(c); loc != "" {
		req.LocationID = loc
	}
	t, err := h.tickets.CheckIn(c.Request.Context(), ticket.CheckInCommand{
		LocationID:    req.LocationID,
		VehicleNumber: req.VehicleNumber,
		VehicleType:   pricing.VehicleType(req.VehicleType),
		DriverName:    req.DriverName,
		PhoneNumber:   req.PhoneNumber,
		Notes:         req.Notes,
		OperatorID:    middleware.CallerUID(c),
	})
	if err != nil {
		writeTicketError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, t)
}

// Get accepts a ticket UUID or a printed ticket number.
func (h *TicketHandler) Get(c *gin.Context) {
	var (
		t   *ticket.Ticket
		err error
	)
	if id, perr := uuid.Parse(c.Param("id")); perr == nil {
		t, err = h.tickets.Get(c.Request.Context(), id)
	} else {
		t, err = h.tickets.GetByNumber(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		writeTicketError(c, err)
		return
	}
	if !h.canAccess(c, t) {
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TicketHandler) AmountDue(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !h.authorize(c, id) {
		return
	}
	due, err := h.tickets.AmountDue(c.Request.Context(), id)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, due)
}

type checkoutReq struct {
	PaymentMethod string `json:"payment_method"`
	LostTicket    bool   `json:"lost_ticket"`
}

func (h *TicketHandler) Checkout(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req checkoutReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if !h.authorize(c, id) {
		return
	}
	t, err := h.tickets.Checkout(c.Request.Context(), ticket.CheckoutCommand{
		TicketID:      id,
		PaymentMethod: ticket.PaymentMethod(req.PaymentMethod),
		LostTicket:    req.LostTicket,
		OperatorID:    middleware.CallerUID(c),
	})
	if err != nil {
		writeTicketError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *TicketHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req cancelReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if !h.authorize(c, id) {
		return
	}
	t, err := h.tickets.Cancel(c.Request.Context(), ticket.CancelCommand{
		TicketID:   id,
		Reason:     req.Reason,
		OperatorID: middleware.CallerUID(c),
	})
	if err != nil {
		writeTicketError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TicketHandler) List(c *gin.Context) {
	f, ok := ticketFilter(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	f.Limit = limit
	f.Status = ticket.Status(c.Query("status"))
	f.VehicleNumber = c.Query("vehicleNumber")
	tickets, err := h.tickets.List(c.Request.Context(), f)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	if tickets == nil {
		tickets = []ticket.Ticket{}
	}
	writeJSON(c, http.StatusOK, tickets)
}

// authorize loads the ticket to check the caller's location binding.
func (h *TicketHandler) authorize(c *gin.Context, id uuid.UUID) bool {
	if middleware.CallerLocation(c) == "" {
		return true
	}
	t, err := h.tickets.Get(c.Request.Context(), id)
	if err != nil {
		writeTicketError(c, err)
		return false
	}
	return h.canAccess(c, t)
}

func (h *TicketHandler) canAccess(c *gin.Context, t *ticket.Ticket) bool {
	if loc := middleware.CallerLocation(c); loc != "" && loc != t.LocationID {
		writeError(c, http.StatusForbidden, "access denied")
		return false
	}
	return true
}

// ticketFilter reads ?locationId=&startDate=&endDate=, pinning attendants to their location.
func ticketFilter(c *gin.Context) (ticket.Filter, bool) {
	from, ok := queryTime(c, "startDate")
	if !ok {
		return ticket.Filter{}, false
	}
	to, ok := queryTime(c, "endDate")
	if !ok {
		return ticket.Filter{}, false
	}
	f := ticket.Filter{LocationID: c.Query("locationId"), From: from, To: to}
	if loc := middleware.CallerLocation(c); loc != "" {
		f.LocationID = loc
	}
	return f, true
}
