package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/reyer3/Pulso-Back-sub001/config"
	"github.com/reyer3/Pulso-Back-sub001/db"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/handler"
	repo "github.com/reyer3/Pulso-Back-sub001/internal/auth/repository/postgres"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/service"
	"github.com/reyer3/Pulso-Back-sub001/internal/obs"
)

const (
	metricsAddr   = ":9091"
	sweepInterval = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	obs.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	userRepo := repo.NewUserRepository(dbPool)
	tokenRepo := repo.NewTokenRepository(dbPool)
	auditRepo := repo.NewAuditRepository(dbPool)

	tokenService, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL())
	if err != nil {
		log.Fatalf("failed to build token service: %v", err)
	}
	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	guard := service.NewLockoutGuard(userRepo, cfg.LoginMaxAttempts, cfg.LoginWindow(), cfg.LockoutDuration())
	audit := service.NewAuditRecorder(auditRepo)
	authService := service.NewAuthService(userRepo, tokenRepo, tokenService, hasher, guard, audit, cfg)

	authHandler := handler.NewAuthHandler(authService, cfg)
	loginLimiter := handler.NewRateLimiter(ctx, 5, 10)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: !cfg.Debug,
	})
	handler.RegisterRoutes(app, authHandler, loginLimiter)

	// Metrics stay off the public port.
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: obs.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	go sweepLoop(ctx, authService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()
	log.Printf("auth service listening on :%s (env=%s)", cfg.Port, cfg.Env)

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("fiber shutdown: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics shutdown: %v", err)
	}
}

// sweepLoop removes expired token rows on a fixed interval until ctx ends.
func sweepLoop(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := authService.SweepExpiredTokens(ctx); err != nil {
				log.Printf("warn: token sweep failed: %v", err)
			}
		}
	}
}
