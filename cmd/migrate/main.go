package main

import (
	"multisig_wallet/internal/config" // Custom import path (Config)
	"multisig_wallet/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	db.Migrate(cfg.DSN())
}
