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

	httprouter "github.com/dtroode/authkeeper-server/internal/api/http/router"
	httpserver "github.com/dtroode/authkeeper-server/internal/api/http/server"
	"github.com/dtroode/authkeeper-server/internal/config"
	"github.com/dtroode/authkeeper-server/internal/credential"
	"github.com/dtroode/authkeeper-server/internal/logger"
	"github.com/dtroode/authkeeper-server/internal/model"
	"github.com/dtroode/authkeeper-server/internal/repository/postgres"
	"github.com/dtroode/authkeeper-server/internal/server"
	"github.com/dtroode/authkeeper-server/internal/service"
	"github.com/dtroode/authkeeper-server/internal/token"

	httpctx "github.com/dtroode/authkeeper-server/internal/api/http/context"
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

	issuer, err := token.NewJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.AccessExpiration,
		cfg.JWT.RefreshExpiration,
	)
	if err != nil {
		logger.Fatal("failed to initialize token issuer", "error", err)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshRepo := postgres.NewRefreshTokenRepository(db)
	resetRepo := postgres.NewPasswordResetRepository(db)
	txManager := postgres.NewTxManager(db)

	credentials := credential.NewVerifier(userRepo, cfg.Password.BcryptCost)

	authService := service.NewAuth(credentials, userRepo, refreshRepo, issuer, txManager, logger)
	refreshService := service.NewRefresh(userRepo, refreshRepo, issuer, txManager, logger)
	resetService := service.NewPasswordReset(credentials, userRepo, resetRepo, refreshRepo, txManager, logger)
	maintenance := service.NewMaintenance(refreshRepo, resetRepo, logger)

	ctxMgr := httpctx.NewManager()

	r := httprouter.New(authService, refreshService, resetService, issuer, ctxMgr, logger)
	httpServer := httpserver.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	if cfg.CleanupInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runCleanup(ctx, maintenance, cfg.CleanupInterval, logger)
		}()
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// runCleanup purges expired token rows on a fixed interval until the
// context is cancelled.
func runCleanup(ctx context.Context, maintenance *service.Maintenance, interval time.Duration, logger *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := maintenance.PurgeExpired(ctx); err != nil {
				logger.Error("cleanup run failed", "error", err)
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
