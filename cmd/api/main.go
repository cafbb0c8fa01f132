package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/admin-backoffice/internal/api/http"
	"github.com/spec-kit/admin-backoffice/internal/api/http/handlers"
	"github.com/spec-kit/admin-backoffice/internal/auth"
	"github.com/spec-kit/admin-backoffice/internal/config"
	"github.com/spec-kit/admin-backoffice/internal/mail"
	"github.com/spec-kit/admin-backoffice/internal/observability"
	"github.com/spec-kit/admin-backoffice/internal/persistence"
	"github.com/spec-kit/admin-backoffice/internal/ratelimit"
	"github.com/spec-kit/admin-backoffice/internal/repository"
	"github.com/spec-kit/admin-backoffice/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pool := pg.PoolHandle()
	staffRepo := repository.NewStaffRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	verificationRepo := repository.NewVerificationRepository(pool)

	metrics := observability.NewMetrics()
	limiter := ratelimit.NewLimiter(cfg.RateLimit)
	authorizer := auth.NewRoleAuthorizer()
	mailer := mail.NewSMTPMailer(cfg.Mail, logger)

	sessionService := service.NewSessionService(cfg.Auth, sessionRepo, staffRepo)
	otpService := service.NewOTPService(cfg.Auth, cfg.Mail, verificationRepo, mailer, logger)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		StaffRepo:  staffRepo,
		Sessions:   sessionService,
		OTP:        otpService,
		Limiter:    limiter,
		Authorizer: authorizer,
	}, logger)
	staffService := service.NewStaffService(staffRepo, sessionRepo, authorizer, logger, cfg.Auth.BcryptCost)

	authMiddleware := auth.NewMiddleware(sessionService, limiter, cfg.Auth.SessionCookieName)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg)
	authHandler := handlers.NewAuthHandler(authService, cfg.Auth)
	staffHandler := handlers.NewStaffHandler(staffService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Staff:          staffHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
