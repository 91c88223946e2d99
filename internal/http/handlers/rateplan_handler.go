// README: Rate plan administration handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
)

type RatePlanService interface {
	Create(ctx context.Context, p pricing.RatePlan) (*pricing.RatePlan, error)
	Get(ctx context.Context, id uuid.UUID) (*pricing.RatePlan, error)
	List(ctx context.Context, locationID string, activeOnly bool) ([]pricing.RatePlan, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	SeedDefaults(ctx context.Context, locationID string) ([]pricing.RatePlan, error)
	AddHoliday(ctx context.Context, locationID string, day time.Time, name string) error
}

type RatePlanHandler struct {
	plans RatePlanService
}

func NewRatePlanHandler(svc RatePlanService) *RatePlanHandler {
	return &RatePlanHandler{plans: svc}
}

func (h *RatePlanHandler) Create(c *gin.Context) {
	var p pricing.RatePlan
	if err := c.ShouldBindJSON(&p); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := h.plans.Create(c.Request.Context(), p)
	if err != nil {
		writeRatePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, created)
}

func (h *RatePlanHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.plans.Get(c.Request.Context(), id)
	if err != nil {
		writeRatePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

// List requires ?locationId=; ?all=true includes inactive versions.
func (h *RatePlanHandler) List(c *gin.Context) {
	plans, err := h.plans.List(c.Request.Context(), c.Query("locationId"), c.Query("all") != "true")
	if err != nil {
		writeRatePlanError(c, err)
		return
	}
	if plans == nil {
		plans = []pricing.RatePlan{}
	}
	writeJSON(c, http.StatusOK, plans)
}

func (h *RatePlanHandler) Deactivate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.plans.Deactivate(c.Request.Context(), id); err != nil {
		writeRatePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"message": "rate plan deactivated"})
}

func (h *RatePlanHandler) SeedDefaults(c *gin.Context) {
	plans, err := h.plans.SeedDefaults(c.Request.Context(), c.Param("locationId"))
	if err != nil {
		writeRatePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, plans)
}

type holidayReq struct {
	Date string `json:"date" binding:"required"`
	Name string `json:"name"`
}

func (h *RatePlanHandler) AddHoliday(c *gin.Context) {
	var req holidayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if err := h.plans.AddHoliday(c.Request.Context(), c.Param("locationId"), day, req.Name); err != nil {
		writeRatePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"location_id": c.Param("locationId"), "date": req.Date, "name": req.Name})
}
