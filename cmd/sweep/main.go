// Command sweep expires every stale pending proposal once and exits.
// Proposals also expire lazily on read.
package main

import (
	"context" // Run deadline
	"time"    // Run deadline

	"multisig_wallet/internal/approval" // Approval engine
	"multisig_wallet/internal/config"   // Configuration
	"multisig_wallet/internal/db"       // Database connection
	"multisig_wallet/internal/store"    // Persistence

	"github.com/sirupsen/logrus" // Logging
)

func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	gormStore := store.NewGormStore(gdb)

	// Sweeping needs no ledger or key material
	engine := approval.NewEngine(approval.Deps{
		Wallets:   gormStore,
		Proposals: gormStore,
		Logger:    logrus.StandardLogger(),
	}, approval.Config{ProposalTTL: cfg.ProposalTTL})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := engine.SweepExpired(ctx)
	if err != nil {
		logrus.Fatalf("sweep failed: %v", err)
	}
	logrus.WithField("expired", n).Info("Sweep completed")
}
