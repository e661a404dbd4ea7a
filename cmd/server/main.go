package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classmark/cbt-backend/internal/cache"
	"github.com/classmark/cbt-backend/internal/config"
	"github.com/classmark/cbt-backend/internal/database"
	"github.com/classmark/cbt-backend/internal/handler"
	"github.com/classmark/cbt-backend/internal/logger"
	"github.com/classmark/cbt-backend/internal/repository"
	"github.com/classmark/cbt-backend/internal/router"
	"github.com/classmark/cbt-backend/internal/service"
	"github.com/classmark/cbt-backend/internal/validator"
	"github.com/classmark/cbt-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting CBT backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories
	studentRepo := repository.NewStudentRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	// Services
	paperCache := cache.NewRedisPaperCache(rdb, log)
	auditService := service.NewAuditService(rdb, auditRepo, log)
	settingService := service.NewSettingService(settingRepo, log)
	authService := service.NewAuthService(
		studentRepo, examRepo, adminRepo, auditService,
		cfg.JWTSecret, cfg.JWTExpiry, cfg.BcryptCost, log)
	sessionService := service.NewSessionService(
		submissionRepo, examRepo, questionRepo, settingService,
		paperCache, auditService, log)
	studentService := service.NewStudentService(studentRepo, cfg.BcryptCost, log)
	examService := service.NewExamService(examRepo, questionRepo, submissionRepo, paperCache, log)

	// Handlers
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		ExamPortal:  handler.NewExamPortalHandler(authService, sessionService, log),
		StudentMgmt: handler.NewStudentManagementHandler(studentService),
		ExamMgmt:    handler.NewExamManagementHandler(examService),
		Setting:     handler.NewSettingHandler(settingService),
		Audit:       handler.NewAuditHandler(auditService),
		Monitor:     handler.NewMonitorHandler(rdb, log, cfg.AllowedOrigins),
	}

	// Background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	auditWorker := worker.NewAuditWorker(auditRepo, rdb, log)
	go auditWorker.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// Stop accepting new HTTP requests first.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Then stop the audit worker and let it drain the queue.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
