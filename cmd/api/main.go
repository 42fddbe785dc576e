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

	"github.com/healthbridge/partner-api/internal/config"
	"github.com/healthbridge/partner-api/internal/email"
	adminHandler "github.com/healthbridge/partner-api/internal/handler/admin"
	authHandler "github.com/healthbridge/partner-api/internal/handler/auth"
	healthHandler "github.com/healthbridge/partner-api/internal/handler/health"
	hospitalHandler "github.com/healthbridge/partner-api/internal/handler/hospital"
	staffHandler "github.com/healthbridge/partner-api/internal/handler/staff"
	"github.com/healthbridge/partner-api/internal/middleware"
	"github.com/healthbridge/partner-api/internal/repository/postgres"
	"github.com/healthbridge/partner-api/internal/router"
	auditService "github.com/healthbridge/partner-api/internal/service/audit"
	authService "github.com/healthbridge/partner-api/internal/service/auth"
	hospitalService "github.com/healthbridge/partner-api/internal/service/hospital"
	identityService "github.com/healthbridge/partner-api/internal/service/identity"
	provisioningService "github.com/healthbridge/partner-api/internal/service/provisioning"
	staffService "github.com/healthbridge/partner-api/internal/service/staff"
	"github.com/healthbridge/partner-api/pkg/auth"
	"github.com/healthbridge/partner-api/pkg/logger"
	"github.com/healthbridge/partner-api/pkg/metrics"
	"github.com/healthbridge/partner-api/pkg/security"
	"github.com/healthbridge/partner-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger("api", &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := validator.RegisterCustomValidations(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validations")
	}

	encryptor, err := security.NewAESEncryptor([]byte(cfg.Encryption.Key))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token encryption")
	}

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	hospitalRepo := postgres.NewHospitalRepository(base)
	staffRepo := postgres.NewStaffRepository(base)
	tokenRepo := postgres.NewTokenRepository(base, encryptor)
	auditRepo := postgres.NewAuditRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	jwtSvc := auth.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
		time.Duration(cfg.JWT.RefreshExpiryHours)*time.Hour,
	)
	hasher := security.NewBcryptHasher(security.DefaultBcryptCost)
	generator := security.NewPasswordGenerator(security.TempPasswordLen)
	emailSvc := email.NewSMTPService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	auditor := auditService.NewService(auditRepo, appLogger)
	authSvc := authService.NewService(userRepo, tokenRepo, jwtSvc, hasher, emailSvc, auditor, appLogger)
	identitySvc := identityService.NewService(userRepo, hospitalRepo, hasher)
	hospitalSvc := hospitalService.NewService(hospitalRepo, auditor, appLogger)
	staffSvc := staffService.NewService(staffRepo, hospitalRepo, auditor, appLogger)
	provisioner := provisioningService.NewService(hospitalSvc, identitySvc, emailSvc, generator, auditor, appLogger)

	appMetrics := metrics.NewMetrics("partner_api", "core")
	authMw := middleware.NewAuthMiddleware(authSvc, userRepo)

	r := router.NewRouter(
		healthHandler.NewHandler(db),
		authHandler.NewHandler(authSvc, authMw, appMetrics),
		hospitalHandler.NewHandler(hospitalSvc, outboxRepo, authMw, appMetrics, appLogger),
		staffHandler.NewHandler(staffSvc, outboxRepo, authMw, appMetrics, appLogger),
		adminHandler.NewHandler(provisioner, hospitalSvc, identitySvc, outboxRepo, authMw, appMetrics, appLogger),
		appLogger,
		router.Config{
			RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst: cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORS:           middleware.DefaultCORSConfig(),
			MetricsPrefix:  "partner_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
