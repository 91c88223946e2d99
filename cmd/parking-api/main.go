// README: Entry point; loads config, wires stores and services, starts the HTTP server and the plan sweep job.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/config"
	httptransport "github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/http"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/infra"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/jobs"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/logger"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/pricing"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/rateplan"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/report"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/modules/ticket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewWriter(os.Stderr, "text").Fatal(err.Error())
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: "stdout"})
	if err != nil {
		logger.NewWriter(os.Stderr, "text").Fatal(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		log.WithError(err).Fatal("database init failed")
	}
	defer dbPool.Close()

	if cfg.DB.Migrate {
		if err := infra.ApplyMigrations(ctx, dbPool, cfg.DB.MigrationsDir); err != nil {
			log.WithError(err).Fatal("migrations failed")
		}
		log.WithField("dir", cfg.DB.MigrationsDir).Info("migrations applied")
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()

	reportLoc, err := time.LoadLocation(cfg.Pricing.Timezone)
	if err != nil {
		log.WithError(err).Fatal("report time zone")
	}

	planStore := pricing.NewStore(dbPool)
	planCache := rateplan.NewCache(planStore, redisClient, cfg.Pricing.PlanCacheTTL, log)
	pricingSvc := pricing.NewService(planCache, planStore, cfg.Pricing.LostTicketDefault)
	ratePlanSvc := rateplan.NewService(planStore, planCache, rateplan.Defaults{
		Currency: cfg.Pricing.Currency,
		Timezone: cfg.Pricing.Timezone,
	}, log)

	ticketStore := ticket.NewStore(dbPool)
	ticketSvc := ticket.NewService(ticketStore, pricingSvc, log)
	reportSvc := report.NewService(ticketSvc)

	scheduler := jobs.NewScheduler(log, 30*time.Second)
	if err := scheduler.Register("sweep-ended-plans", cfg.Jobs.SweepPlansSpec, func(ctx context.Context) error {
		_, err := ratePlanSvc.SweepEnded(ctx)
		return err
	}); err != nil {
		log.WithError(err).Fatal("schedule plan sweep")
	}
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Start(ctx)
	}()

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Pricing:        pricingSvc,
		RatePlans:      ratePlanSvc,
		Tickets:        ticketSvc,
		Reports:        reportSvc,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		ReportLocation: reportLoc,
		Log:            log,
	})

	server := httptransport.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, log)
	runErr := server.Run(ctx)

	// Jobs in flight still hold the pool; let them finish before the deferred closes.
	stop()
	<-schedulerDone
	if runErr != nil {
		log.WithError(runErr).Fatal("http server stopped")
	}
	log.Info("shutdown complete")
}
