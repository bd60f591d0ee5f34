package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zerolayers/presale-service/internal/config"
	"github.com/zerolayers/presale-service/internal/handler"
	"github.com/zerolayers/presale-service/internal/logging"
	"github.com/zerolayers/presale-service/internal/middleware"
	"github.com/zerolayers/presale-service/internal/repository"
	"github.com/zerolayers/presale-service/internal/service"
	"github.com/zerolayers/presale-service/internal/service/campaign"
	"github.com/zerolayers/presale-service/internal/service/tokenledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("presale-api", cfg.LogLevel, cfg.AppEnv)

	ctx := context.Background()
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	wallets := repository.NewWalletRepository(db)
	campaigns := repository.NewCampaignRepository(db)
	contributions := repository.NewContributionRepository(db)
	transfers := repository.NewTransferRepository(db)
	tokens := repository.NewTokenRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	tokenSvc := tokenledger.NewService(tokens, db)
	campaignSvc := campaign.NewService(campaigns, contributions, wallets, transfers, tokenSvc, db)
	userSvc := service.NewUserService(users, wallets)
	walletSvc := service.NewWalletService(wallets, transfers, db)

	jwtExpiry := time.Duration(cfg.JWTExpiryH) * time.Hour
	authHandler := handler.NewAuthHandler(users, userSvc, cfg.JWTSecret, jwtExpiry)
	userHandler := handler.NewUserHandler(userSvc)
	walletHandler := handler.NewWalletHandler(walletSvc)
	campaignHandler := handler.NewCampaignHandler(campaignSvc)
	tokenHandler := handler.NewTokenHandler(tokenSvc)
	healthHandler := handler.NewHealthHandler(db)

	authMW := middleware.Auth(cfg.JWTSecret)
	idemMW := middleware.Idempotency(idempotency)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("GET /api/v1/users/{id}", authMW(http.HandlerFunc(userHandler.GetByID)))
	mux.Handle("GET /api/v1/users/{id}/wallet", authMW(http.HandlerFunc(walletHandler.Get)))
	mux.Handle("POST /api/v1/users/{id}/wallet/deposits", authMW(idemMW(http.HandlerFunc(walletHandler.Deposit))))
	mux.Handle("GET /api/v1/users/{id}/wallet/transfers", authMW(http.HandlerFunc(walletHandler.Transfers)))

	mux.Handle("POST /api/v1/campaigns", authMW(idemMW(http.HandlerFunc(campaignHandler.Create))))
	mux.HandleFunc("GET /api/v1/campaigns", campaignHandler.List)
	mux.HandleFunc("GET /api/v1/campaigns/{id}", campaignHandler.Get)
	mux.Handle("POST /api/v1/campaigns/{id}/contributions", authMW(idemMW(http.HandlerFunc(campaignHandler.Contribute))))
	mux.Handle("GET /api/v1/campaigns/{id}/contributions", authMW(http.HandlerFunc(campaignHandler.ListContributions)))
	mux.Handle("GET /api/v1/campaigns/{id}/contributions/me", authMW(http.HandlerFunc(campaignHandler.GetContribution)))
	mux.HandleFunc("GET /api/v1/campaigns/{id}/contributions/{contributorID}", campaignHandler.GetContributorEntry)
	mux.Handle("POST /api/v1/campaigns/{id}/claims", authMW(idemMW(http.HandlerFunc(campaignHandler.Claim))))
	mux.Handle("POST /api/v1/campaigns/{id}/refunds", authMW(idemMW(http.HandlerFunc(campaignHandler.Refund))))
	mux.Handle("POST /api/v1/campaigns/{id}/enable-claims", authMW(idemMW(http.HandlerFunc(campaignHandler.EnableClaims))))
	mux.Handle("POST /api/v1/campaigns/{id}/enable-refunds", authMW(idemMW(http.HandlerFunc(campaignHandler.EnableRefunds))))
	mux.Handle("POST /api/v1/campaigns/{id}/finalize", authMW(idemMW(http.HandlerFunc(campaignHandler.Finalize))))

	mux.Handle("POST /api/v1/mints", authMW(idemMW(http.HandlerFunc(tokenHandler.CreateMint))))
	mux.HandleFunc("GET /api/v1/mints/{id}", tokenHandler.GetMint)
	mux.Handle("GET /api/v1/mints/{id}/balance", authMW(http.HandlerFunc(tokenHandler.GetBalance)))
	mux.Handle("POST /api/v1/mints/{id}/mint", authMW(idemMW(http.HandlerFunc(tokenHandler.MintTokens))))
	mux.Handle("POST /api/v1/mints/{id}/burn", authMW(idemMW(http.HandlerFunc(tokenHandler.BurnTokens))))
	mux.Handle("POST /api/v1/mints/{id}/transfers", authMW(idemMW(http.HandlerFunc(tokenHandler.TransferTokens))))
	mux.Handle("POST /api/v1/mints/{id}/approvals", authMW(idemMW(http.HandlerFunc(tokenHandler.Approve))))
	mux.Handle("POST /api/v1/custody/fund", authMW(idemMW(http.HandlerFunc(tokenHandler.FundCustody))))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
