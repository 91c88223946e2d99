// README: Base handler utilities (JSON helpers, error mapping, query parsing).
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/rateplan"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/report"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/ticket"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeEngineError maps pricing errors; it reports false for anything else.
func writeEngineError(c *gin.Context, err error, noPlanStatus int) bool {
	var invalidPlan *pricing.InvalidRatePlanError
	switch {
	case errors.As(err, &invalidPlan):
		writeJSON(c, http.StatusUnprocessableEntity, errorResponse{Error: invalidPlan.Error(), Field: invalidPlan.Field})
	case errors.Is(err, pricing.ErrInvalidInterval):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrNoRatePlan):
		writeError(c, noPlanStatus, err.Error())
	default:
		return false
	}
	return true
}

func writePricingError(c *gin.Context, err error) {
	if writeEngineError(c, err, http.StatusNotFound) {
		return
	}
	writeError(c, http.StatusInternalServerError, "internal error")
}

func writeRatePlanError(c *gin.Context, err error) {
	if writeEngineError(c, err, http.StatusNotFound) {
		return
	}
	switch {
	case errors.Is(err, rateplan.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, rateplan.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeTicketError(c *gin.Context, err error) {
	if writeEngineError(c, err, http.StatusUnprocessableEntity) {
		return
	}
	switch {
	case errors.Is(err, ticket.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ticket.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ticket.ErrInvalidState), errors.Is(err, ticket.ErrActiveTicket), errors.Is(err, ticket.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeReportError(c *gin.Context, err error) {
	if errors.Is(err, report.ErrBadRequest) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	writeError(c, http.StatusInternalServerError, "internal error")
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryTime accepts RFC 3339 or a bare date (midnight UTC).
func queryTime(c *gin.Context, name string) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	writeError(c, http.StatusBadRequest, "invalid "+name)
	return time.Time{}, false
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

func vehicleTypeParam(v string) (pricing.VehicleType, bool) {
	if v == "" {
		return pricing.VehicleCar, true
	}
	vt := pricing.VehicleType(v)
	return vt, vt.Valid()
}
