// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/http/handlers"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/http/middleware"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/logger"
)

type RouterDeps struct {
	Pricing   handlers.PricingService
	RatePlans handlers.RatePlanService
	Tickets   handlers.TicketService
	Reports   handlers.ReportService
	JWTSecret []byte
	// ReportLocation is the default zone for revenue buckets.
	ReportLocation *time.Location
	Log            *logger.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(deps.Log), middleware.Recovery(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api/v1", middleware.Auth(deps.JWTSecret))
	managers := middleware.RequireRole(middleware.RoleOwner, middleware.RoleManager)

	pricingHandler := handlers.NewPricingHandler(deps.Pricing)
	api.POST("/quotes", pricingHandler.Quote)
	api.GET("/calculate/:locationId", pricingHandler.Calculate)
	api.GET("/lost-ticket-fee/:locationId", pricingHandler.LostTicketFee)

	planHandler := handlers.NewRatePlanHandler(deps.RatePlans)
	api.GET("/rate-plans", planHandler.List)
	api.GET("/rate-plans/:id", planHandler.Get)
	api.POST("/rate-plans", managers, planHandler.Create)
	api.DELETE("/rate-plans/:id", middleware.RequireRole(middleware.RoleOwner), planHandler.Deactivate)
	api.POST("/locations/:locationId/rate-plans/defaults", managers, planHandler.SeedDefaults)
	api.POST("/locations/:locationId/holidays", managers, planHandler.AddHoliday)

	ticketHandler := handlers.NewTicketHandler(deps.Tickets)
	api.POST("/tickets", ticketHandler.CheckIn)
	api.GET("/tickets", ticketHandler.List)
	api.GET("/tickets/:id", ticketHandler.Get)
	api.GET("/tickets/:id/amount-due", ticketHandler.AmountDue)
	api.POST("/tickets/:id/checkout", ticketHandler.Checkout)
	api.POST("/tickets/:id/cancel", ticketHandler.Cancel)

	reportHandler := handlers.NewReportHandler(deps.Reports, deps.ReportLocation)
	api.GET("/reports/summary", reportHandler.Summary)
	api.GET("/reports/revenue", managers, reportHandler.Revenue)

	return r
}
