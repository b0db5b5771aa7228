package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"clinicdesk/internal/calendar"
	"clinicdesk/internal/config"
	v1 "clinicdesk/internal/handler/v1"
	"clinicdesk/internal/repository"
	"clinicdesk/internal/router"
	"clinicdesk/internal/service"
	"clinicdesk/pkg/auth"
	"clinicdesk/pkg/database"
	"clinicdesk/pkg/logger"
	"clinicdesk/pkg/metrics"
	"clinicdesk/pkg/tracer"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			zlog.Fatal("initializing tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				zlog.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		zlog.Fatal("connecting to database", zap.Error(err))
	}
	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("running migrations", zap.Error(err))
	}

	collector := metrics.NewCollector(cfg.App.Name)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	apptRepo := repository.NewAppointmentRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, zlog, collector)
	defer auditSvc.Shutdown()

	authSvc := service.NewAuthService(userRepo, jwtManager, zlog)
	apptSvc := service.NewAppointmentService(apptRepo, patientRepo, auditSvc, collector, zlog)
	transitions := service.NewStatusTransitioner(apptRepo, zlog)
	consultSvc := service.NewConsultationService(apptRepo, patientRepo, transitions, auditSvc, collector, zlog)

	cal := calendar.NewAdapter(func(patientID uuid.UUID) string {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		p, err := patientRepo.GetByID(ctx, patientID)
		if err != nil {
			return ""
		}
		return p.FullName()
	})

	engine := router.New(router.Deps{
		Config:        cfg,
		Logger:        zlog,
		JWTManager:    jwtManager,
		Collector:     collector,
		Auth:          v1.NewAuthHandler(authSvc),
		Appointments:  v1.NewAppointmentHandler(apptSvc, cal),
		Consultations: v1.NewConsultationHandler(consultSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go expirySweep(sweepCtx, apptSvc, cfg.Scheduling.ExpirySweepInterval, zlog)

	go func() {
		zlog.Info("server starting",
			zap.String("address", cfg.Server.Address()),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("forced shutdown", zap.Error(err))
	}
	zlog.Info("server stopped")
}

// expirySweep periodically moves scheduled appointments whose slot has
// fully elapsed into the expired status.
func expirySweep(ctx context.Context, svc *service.AppointmentService, interval time.Duration, zlog *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.ExpireOverdue(ctx)
			if err != nil {
				zlog.Error("expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				zlog.Info("expired overdue appointments", zap.Int64("count", n))
			}
		}
	}
}
