package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/config"
	appointmentHandler "github.com/Andres09xZ/FisioLab-app-sub000/internal/handler/appointment"
	availabilityHandler "github.com/Andres09xZ/FisioLab-app-sub000/internal/handler/availability"
	healthHandler "github.com/Andres09xZ/FisioLab-app-sub000/internal/handler/health"
	planHandler "github.com/Andres09xZ/FisioLab-app-sub000/internal/handler/plan"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/middleware"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository/postgres"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/router"
	appointmentService "github.com/Andres09xZ/FisioLab-app-sub000/internal/service/appointment"
	availabilityService "github.com/Andres09xZ/FisioLab-app-sub000/internal/service/availability"
	directoryService "github.com/Andres09xZ/FisioLab-app-sub000/internal/service/directory"
	planService "github.com/Andres09xZ/FisioLab-app-sub000/internal/service/plan"
	reminderService "github.com/Andres09xZ/FisioLab-app-sub000/internal/service/reminder"
	schedulerService "github.com/Andres09xZ/FisioLab-app-sub000/internal/service/scheduler"
	"github.com/Andres09xZ/FisioLab-app-sub000/pkg/logger"
	"github.com/Andres09xZ/FisioLab-app-sub000/pkg/messaging"
	redisbroker "github.com/Andres09xZ/FisioLab-app-sub000/pkg/messaging/redis"
	"github.com/Andres09xZ/FisioLab-app-sub000/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	rootLogger := logger.New(&logger.Config{
		Level:      cfg.Logging.ZerologLevel(),
		TimeFormat: time.RFC3339,
		Console:    cfg.Logging.Console,
	})
	log.Logger = rootLogger

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("fisiolab")

	// Repositories
	txManager := postgres.NewBaseRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	practitionerRepo := postgres.NewPractitionerRepository(db)

	// Optional Redis broker for reminder events.
	var broker messaging.Broker
	if cfg.Redis.Enabled {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{URL: cfg.Redis.URL},
			logger.ForComponent(rootLogger, "redis"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	// Services
	directorySvc := directoryService.NewService(patientRepo, practitionerRepo)
	availabilitySvc := availabilityService.NewService(appointmentRepo)
	reminderSvc := reminderService.NewService(broker, cfg.Scheduling.ReminderLead,
		logger.ForComponent(rootLogger, "reminder"), m)
	planSvc := planService.NewService(planRepo, sessionRepo, appointmentRepo, directorySvc,
		txManager, logger.ForComponent(rootLogger, "plan"), m)
	appointmentSvc := appointmentService.NewService(appointmentRepo, sessionRepo, planSvc,
		directorySvc, reminderSvc, txManager, logger.ForComponent(rootLogger, "appointment"), m)
	schedulerSvc := schedulerService.NewService(appointmentRepo, sessionRepo, planRepo,
		directorySvc, txManager, logger.ForComponent(rootLogger, "scheduler"), m)

	// Router
	r := router.NewRouter(
		router.Config{
			RateLimit:      rate.Limit(cfg.Server.RateLimit),
			RateBurst:      cfg.Server.RateBurst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORSConfig:     middleware.DefaultCORSConfig(),
			MetricsPrefix:  "fisiolab",
		},
		healthHandler.NewHandler(db),
		availabilityHandler.NewHandler(availabilitySvc),
		appointmentHandler.NewHandler(appointmentSvc),
		planHandler.NewHandler(planSvc, schedulerSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
