// README: Report handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/report"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/ticket"
)

type ReportService interface {
	Summary(ctx context.Context, f ticket.Filter) (report.Summary, error)
	Revenue(ctx context.Context, f ticket.Filter, groupBy report.GroupBy, loc *time.Location) ([]report.RevenuePoint, error)
}

type ReportHandler struct {
	reports  ReportService
	location *time.Location
}

// NewReportHandler buckets revenue in loc unless a request passes ?tz=.
func NewReportHandler(svc ReportService, loc *time.Location) *ReportHandler {
	return &ReportHandler{reports: svc, location: loc}
}

func (h *ReportHandler) Summary(c *gin.Context) {
	f, ok := ticketFilter(c)
	if !ok {
		return
	}
	s, err := h.reports.Summary(c.Request.Context(), f)
	if err != nil {
		writeReportError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, s)
}

func (h *ReportHandler) Revenue(c *gin.Context) {
	f, ok := ticketFilter(c)
	if !ok {
		return
	}
	loc := h.location
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid tz")
			return
		}
		loc = l
	}
	points, err := h.reports.Revenue(c.Request.Context(), f, report.GroupBy(c.Query("groupBy")), loc)
	if err != nil {
		writeReportError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"group_by": c.DefaultQuery("groupBy", string(report.GroupDay)), "points": points})
}
