// README: Fee quote, duration estimate and lost-ticket fee handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
)

type PricingService interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (pricing.FeeCalculation, error)
	Estimate(ctx context.Context, locationID string, vehicleType pricing.VehicleType, d time.Duration) (pricing.FeeCalculation, error)
	LostTicketFee(ctx context.Context, locationID string, vehicleType pricing.VehicleType) (decimal.Decimal, error)
}

type PricingHandler struct {
	pricing PricingService
}

func NewPricingHandler(svc PricingService) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

type quoteReq struct {
	LocationID  string     `json:"location_id" binding:"required"`
	VehicleType string     `json:"vehicle_type"`
	EntryTime   time.Time  `json:"entry_time" binding:"required"`
	ExitTime    *time.Time `json:"exit_time"`
}

func (h *PricingHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	vt, ok := vehicleTypeParam(req.VehicleType)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid vehicle_type")
		return
	}
	q := pricing.QuoteRequest{LocationID: req.LocationID, VehicleType: vt, Entry: req.EntryTime}
	if req.ExitTime != nil {
		q.Exit = *req.ExitTime
	}
	calc, err := h.pricing.Quote(c.Request.Context(), q)
	if err != nil {
		writePricingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, calc)
}

// Calculate prices a stay of ?duration= minutes starting now.
func (h *PricingHandler) Calculate(c *gin.Context) {
	vt, ok := vehicleTypeParam(c.Query("vehicleType"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid vehicleType")
		return
	}
	if c.Query("duration") == "" {
		writeError(c, http.StatusBadRequest, "duration required (in minutes)")
		return
	}
	minutes, ok := queryInt(c, "duration", 0)
	if !ok {
		return
	}
	if minutes < 0 {
		writeError(c, http.StatusBadRequest, "invalid duration")
		return
	}
	calc, err := h.pricing.Estimate(c.Request.Context(), c.Param("locationId"), vt, time.Duration(minutes)*time.Minute)
	if err != nil {
		writePricingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, calc)
}

func (h *PricingHandler) LostTicketFee(c *gin.Context) {
	vt, ok := vehicleTypeParam(c.Query("vehicleType"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid vehicleType")
		return
	}
	fee, err := h.pricing.LostTicketFee(c.Request.Context(), c.Param("locationId"), vt)
	if err != nil {
		writePricingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"location_id": c.Param("locationId"), "vehicle_type": vt, "fee": fee})
}
