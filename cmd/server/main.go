package main

import (
	"context"   // Context for Redis operations and shutdown
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Shutdown deadline

	"multisig_wallet/internal/api"      // Custom package for API handlers
	"multisig_wallet/internal/approval" // Approval engine
	"multisig_wallet/internal/config"   // Custom package for configuration
	"multisig_wallet/internal/db"       // Database connection
	"multisig_wallet/internal/ledger"   // Stellar client
	"multisig_wallet/internal/secrets"  // Signing key encryption
	"multisig_wallet/internal/store"    // Persistence
	"multisig_wallet/internal/utils"    // Redis cache

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	gdb, err := db.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	// Test Redis connection
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Seed sealing key
	box, err := secrets.NewSecretBox(cfg.SecretKey)
	if err != nil {
		logrus.Fatalf("invalid SECRET_KEY: %v", err)
	}
	// The fallback seed is optional but must be usable when present
	if cfg.LedgerSigningSeed != "" {
		address, err := ledger.AddressFromSeed(cfg.LedgerSigningSeed)
		if err != nil {
			logrus.Fatalf("invalid LEDGER_SIGNING_SEED: %v", err)
		}
		logrus.WithField("address", address).Info("Fallback signing key loaded")
	}

	// Wire the approval engine
	gormStore := store.NewGormStore(gdb)
	walletStore := store.NewCachedWalletStore(gormStore, utils.NewCache(redisClient, "wallets", cfg.CacheTTL), logrus.StandardLogger())
	horizon := ledger.NewHorizon(ledger.HorizonConfig{
		URL:        cfg.HorizonURL,        // Horizon server
		Passphrase: cfg.NetworkPassphrase, // Network the transactions are signed for
		Timeout:    cfg.LedgerTimeout,     // Submission bound
	})
	engine := approval.NewEngine(approval.Deps{
		Wallets:   walletStore,
		Proposals: gormStore,
		Ledger:    horizon,
		Secrets:   box,
		Logger:    logrus.StandardLogger(),
	}, approval.Config{
		ProposalTTL:   cfg.ProposalTTL,
		LedgerTimeout: cfg.LedgerTimeout,
		FallbackSeed:  cfg.LedgerSigningSeed,
	})

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	api.RegisterRoutes(r, api.Deps{
		DB:        gdb,                                                   // Users and admin queries
		Engine:    engine,                                                // Wallet and proposal operations
		Cache:     utils.NewCache(redisClient, "multisig", cfg.CacheTTL), // Admin listing cache
		JWTSecret: cfg.JWTSecret,                                         // Token secret
	})

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":    cfg.AppPort,
			"horizon": cfg.HorizonURL,
		}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for a termination signal, then let in-flight executions finish
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.LedgerTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Error("Graceful shutdown failed")
	}
	_ = redisClient.Close()
	logrus.Info("Server stopped")
}
