package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	Environment string

	// Issuer session tokens
	JWTSigningKey string
	TokenTTL      time.Duration

	// Ledger (Sui fullnode JSON-RPC). Empty means the in-memory ledger is
	// used, which is only suitable for local development and tests.
	SuiRPCURL      string
	DegreePackage  string // Move package ID holding the degree module
	LedgerTimeout  time.Duration
	SponsorAddress string
	// Hex-encoded ed25519 seeds for the service and sponsor signing keys.
	// Empty seeds fall back to ephemeral dev keys.
	SignerSeed        string
	SponsorSignerSeed string
	// Comma-separated ledger addresses allowed to use the sponsorship relay.
	SponsorAllowedIssuers []string

	// Content store (Walrus publisher/aggregator HTTP endpoints).
	WalrusPublisherURL  string
	WalrusAggregatorURL string
	StorageTimeout      time.Duration

	// Off-chain metadata store. Empty means in-memory.
	DatabaseURL string

	// Verification audit log. Empty means in-memory.
	RedisURL string

	// Largest accepted certificate artifact upload.
	MaxArtifactBytes int64
}

const (
	defaultTokenTTL         = 15 * time.Minute
	defaultLedgerTimeout    = 15 * time.Second
	defaultStorageTimeout   = 30 * time.Second
	defaultMaxArtifactBytes = 10 << 20 // 10 MiB
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                getEnv("VELLUM_ADDR", ":8080"),
		Environment:         getEnv("VELLUM_ENV", "dev"),
		JWTSigningKey:       getEnv("VELLUM_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:            getDuration("VELLUM_TOKEN_TTL", defaultTokenTTL),
		SuiRPCURL:           os.Getenv("VELLUM_SUI_RPC_URL"),
		DegreePackage:       os.Getenv("VELLUM_DEGREE_PACKAGE"),
		LedgerTimeout:       getDuration("VELLUM_LEDGER_TIMEOUT", defaultLedgerTimeout),
		SponsorAddress:      os.Getenv("VELLUM_SPONSOR_ADDRESS"),
		SignerSeed:          os.Getenv("VELLUM_SIGNER_SEED"),
		SponsorSignerSeed:   os.Getenv("VELLUM_SPONSOR_SIGNER_SEED"),
		WalrusPublisherURL:  os.Getenv("VELLUM_WALRUS_PUBLISHER_URL"),
		WalrusAggregatorURL: os.Getenv("VELLUM_WALRUS_AGGREGATOR_URL"),
		StorageTimeout:      getDuration("VELLUM_STORAGE_TIMEOUT", defaultStorageTimeout),
		DatabaseURL:         os.Getenv("VELLUM_DB_URL"),
		RedisURL:            os.Getenv("VELLUM_REDIS_URL"),
		MaxArtifactBytes:    defaultMaxArtifactBytes,
	}

	if allowed := os.Getenv("VELLUM_SPONSOR_ALLOWED_ISSUERS"); allowed != "" {
		for _, addr := range strings.Split(allowed, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				cfg.SponsorAllowedIssuers = append(cfg.SponsorAllowedIssuers, addr)
			}
		}
	}

	return cfg
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisFromEnv builds a Redis config with production defaults.
func RedisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("VELLUM_REDIS_URL"),
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
