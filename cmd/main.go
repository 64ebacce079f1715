package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/atplgurukul/gurukul-auth/internal/config"
	"github.com/atplgurukul/gurukul-auth/internal/logger"
	"github.com/atplgurukul/gurukul-auth/internal/notification"
	"github.com/atplgurukul/gurukul-auth/internal/repository/postgres"
	"github.com/atplgurukul/gurukul-auth/internal/security"
	"github.com/atplgurukul/gurukul-auth/internal/service"
	"github.com/atplgurukul/gurukul-auth/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	otpRepo := postgres.NewOtpRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	resetTicketRepo := postgres.NewResetTicketRepository(db)

	tokenManager := token.NewJWT(cfg.JWT.Secret)
	hasher := security.NewHasher(cfg.Auth.BcryptCost)
	notifier := notification.NewSMTP(cfg.SMTP, logger)

	otpService := service.NewOtp(otpRepo, notifier, logger)
	sessionService := service.NewSession(sessionRepo, logger)
	authService := service.NewAuth(userRepo, resetTicketRepo, hasher, tokenManager, otpService, sessionService, notifier, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runCleanup(ctx, logger, cfg.Cleanup.Interval, authService)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	wg.Wait()
	logger.Info("shutdown complete")
}

func runCleanup(ctx context.Context, logger *logger.Logger, interval time.Duration, authService *service.Auth) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpired(ctx); err != nil {
				logger.Error("failed to clean up expired records", "error", err)
			}
		}
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
