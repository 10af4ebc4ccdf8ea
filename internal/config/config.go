package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For duration settings

	"multisig_wallet/internal/approval" // Engine defaults for TTL and ledger timeout

	"github.com/joho/godotenv"   // For loading .env files
	"github.com/sirupsen/logrus" // For reporting malformed settings
)

// Config holds the application configuration
type Config struct {
	AppPort           string        // Application port
	DBUser            string        // Database user
	DBPassword        string        // Database password
	DBHost            string        // Database host
	DBPort            string        // Database port
	DBName            string        // Database name
	JWTSecret         string        // JWT secret key
	RedisAddr         string        // Redis server address
	RedisPass         string        // Redis password
	RedisDB           int           // Redis database number
	IsProd            bool          // Is production environment
	SecretKey         string        // Hex encoded 32 byte key sealing wallet signing seeds
	HorizonURL        string        // Stellar Horizon base URL
	NetworkPassphrase string        // Stellar network passphrase
	LedgerSigningSeed string        // Fallback signing seed for wallets registered without one
	LedgerTimeout     time.Duration // Bound on a single ledger submission
	ProposalTTL       time.Duration // How long a proposal collects approvals
	CacheTTL          time.Duration // Lifetime of Redis cache entries
}

// Defaults for optional settings
const (
	DefaultHorizonURL        = "https://horizon-testnet.stellar.org"
	DefaultNetworkPassphrase = "Test SDF Network ; September 2015"
	DefaultCacheTTL          = 60 * time.Second
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:           os.Getenv("APP_PORT"),                                       // Application port
		DBUser:            os.Getenv("DB_USER"),                                        // Database user
		DBPassword:        os.Getenv("DB_PASSWORD"),                                    // Database password
		DBHost:            os.Getenv("DB_HOST"),                                        // Database host
		DBPort:            os.Getenv("DB_PORT"),                                        // Database port
		DBName:            os.Getenv("DB_NAME"),                                        // Database name
		JWTSecret:         os.Getenv("JWT_SECRET"),                                     // JWT secret key
		RedisAddr:         os.Getenv("REDIS_ADDR"),                                     // Redis server address
		RedisPass:         os.Getenv("REDIS_PASS"),                                     // Redis password
		RedisDB:           redisDB,                                                     // Redis database number
		IsProd:            os.Getenv("IS_PROD") == "true",                              // Is production environment
		SecretKey:         os.Getenv("SECRET_KEY"),                                     // Seed sealing key
		HorizonURL:        stringOr("HORIZON_URL", DefaultHorizonURL),                  // Horizon server
		NetworkPassphrase: stringOr("NETWORK_PASSPHRASE", DefaultNetworkPassphrase),    // Network passphrase
		LedgerSigningSeed: os.Getenv("LEDGER_SIGNING_SEED"),                            // Optional fallback seed
		LedgerTimeout:     durationOr("LEDGER_TIMEOUT", approval.DefaultLedgerTimeout), // Submission timeout
		ProposalTTL:       durationOr("PROPOSAL_TTL", approval.DefaultProposalTTL),     // Approval window
		CacheTTL:          durationOr("CACHE_TTL", DefaultCacheTTL),                    // Cache lifetime
	}
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&loc=UTC"
}

// stringOr returns the variable or def when it is unset
func stringOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// durationOr parses a Go duration such as "30s" or "48h", falling back to def
func durationOr(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logrus.WithFields(logrus.Fields{"key": key, "value": raw}).Warn("Invalid duration, using default")
		return def
	}
	return d
}
