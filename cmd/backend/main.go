// Package main provides the entry point for the AffLink affiliate link service.
//
//	@title			AffLink Backend API
//	@version		1.0.0
//	@description	Affiliate link generation service with provider API and deeplink strategies.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"AffLink-Backend/internal/auth"
	"AffLink-Backend/internal/config"
	"AffLink-Backend/internal/crypto"
	"AffLink-Backend/internal/database"
	httpHandler "AffLink-Backend/internal/handler/http"
	"AffLink-Backend/internal/repository/postgres"
	"AffLink-Backend/internal/service"
	"AffLink-Backend/pkg/logger"
	"AffLink-Backend/pkg/useragent"
	"context"
	"fmt"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting AffLink backend service", zap.String("env", cfg.Env))

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations if enabled
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations (auto_migrate: true)")
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	// Seed initial data if enabled
	if cfg.Database.SeedData {
		log.Info("seeding database with initial data (seed_data: true)")
		if err := database.SeedData(db, log); err != nil {
			log.Fatal("failed to seed database", zap.Error(err))
		}
	} else {
		log.Info("skipping database seeding (seed_data: false)")
	}

	// Initialize User-Agent parser for click device classification
	useragent.InitGlobalParser(log)

	// Secret box for at-rest credential encryption
	box, err := crypto.NewSecretBox(cfg.Crypto.MasterKey)
	if err != nil {
		log.Fatal("failed to initialize secret box", zap.Error(err))
	}

	providerTimeout, err := time.ParseDuration(cfg.Affiliate.ProviderTimeout)
	if err != nil {
		log.Fatal("invalid affiliate provider timeout", zap.Error(err))
	}
	accessTokenTTL, err := time.ParseDuration(cfg.Auth.AccessTokenTTL)
	if err != nil {
		log.Fatal("invalid access token TTL", zap.Error(err))
	}

	// Initialize storage and services
	storage := postgres.New(db, log)
	settingsService := service.NewSettingsService(storage, box, providerTimeout, log)
	merchantService := service.NewMerchantService(storage, log)
	linkService := service.NewAffiliateLinkService(storage, settingsService, []service.LinkGenerator{
		service.NewAPILinkGenerator(providerTimeout, log),
		service.NewDeeplinkGenerator(log),
	}, log)

	// Initialize JWT service for admin authentication
	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:           []byte(cfg.Auth.JWTSecret),
		AccessTokenDuration: accessTokenTTL,
		Issuer:              "AffLink-Backend",
	})
	passwordService := auth.NewPasswordService()
	authHandlers := auth.NewAuthHandlers(jwtService, passwordService, cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash, log)

	// Create HTTP server
	apiServer := httpHandler.NewServer(
		storage,
		settingsService,
		merchantService,
		linkService,
		jwtService,
		authHandlers,
		log,
	)

	addr := fmt.Sprintf(":%d", cfg.HTTPServer.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer.SetupRoutes(promhttp.Handler()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("starting HTTP server", zap.String("address", addr))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down AffLink backend service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}
