package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vellum/internal/audit"
	credentialhandler "vellum/internal/credential/handler"
	credentialservice "vellum/internal/credential/service"
	"vellum/internal/credential/store"
	"vellum/internal/jwttoken"
	"vellum/internal/ledger"
	ledgermemory "vellum/internal/ledger/memory"
	"vellum/internal/ledger/sui"
	"vellum/internal/platform/config"
	"vellum/internal/platform/database"
	"vellum/internal/platform/health"
	"vellum/internal/platform/httpserver"
	"vellum/internal/platform/logger"
	"vellum/internal/platform/metrics"
	platformredis "vellum/internal/platform/redis"
	"vellum/internal/sponsor"
	sponsorhandler "vellum/internal/sponsor/handler"
	"vellum/internal/storage/walrus"
	httptransport "vellum/internal/transport/http"
	id "vellum/pkg/domain"
	"vellum/pkg/platform/middleware/request"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing vellum",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	appMetrics := metrics.New()
	requestMetrics := request.NewMetrics()
	healthHandler := health.New(cfg.Environment)

	// Off-chain metadata store: postgres when configured, in-memory otherwise.
	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	pool, err := database.New(dbConfig)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	var metadataStore store.MetadataStore
	if pool != nil {
		metadataStore = store.NewPostgresStore(pool)
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
		defer pool.Close()
	} else {
		log.Warn("no database configured, using in-memory metadata store")
		metadataStore = store.NewMemoryStore()
	}

	// Verification audit log: redis when configured, in-memory otherwise.
	redisClient, err := platformredis.New(config.RedisFromEnv())
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var auditStore audit.Store
	switch {
	case redisClient != nil:
		auditStore = audit.NewRedisStore(redisClient)
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
		go recordRedisStats(redisClient)
		defer redisClient.Close()
	case pool != nil:
		auditStore = audit.NewPostgresStore(pool)
	default:
		log.Warn("no redis or database configured, using in-memory audit store")
		auditStore = audit.NewInMemoryStore()
	}
	auditor := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	defer auditor.Close()

	// Content store.
	contentStore := walrus.New(cfg.WalrusPublisherURL, cfg.WalrusAggregatorURL, cfg.StorageTimeout)
	if cfg.WalrusAggregatorURL != "" {
		healthHandler.RegisterCheck("walrus", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return contentStore.Health(ctx)
		})
	}

	serviceSigner := loadSigner(cfg.SignerSeed, log, "service")
	sponsorSigner := loadSigner(cfg.SponsorSignerSeed, log, "sponsor")

	// Ledger: Sui fullnode when configured, in-memory otherwise.
	var credentialLedger ledger.Ledger
	if cfg.SuiRPCURL != "" {
		packageID, err := id.ParseObjectID(cfg.DegreePackage)
		if err != nil {
			log.Error("invalid degree package ID", "error", err)
			os.Exit(1)
		}
		suiClient := sui.New(cfg.SuiRPCURL, packageID, serviceSigner, cfg.LedgerTimeout)
		healthHandler.RegisterCheck("ledger", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return suiClient.Health(ctx)
		})
		credentialLedger = suiClient
	} else {
		log.Warn("no ledger RPC configured, using in-memory ledger")
		credentialLedger = ledgermemory.New()
	}

	credentials := credentialservice.NewService(credentialLedger, contentStore, metadataStore, log,
		credentialservice.WithAuditor(auditor),
		credentialservice.WithMetrics(appMetrics),
	)

	allowedIssuers := parseAllowedIssuers(cfg.SponsorAllowedIssuers, log)
	sponsorship := sponsor.NewService(credentialLedger, sponsorSigner, allowedIssuers, log,
		sponsor.WithAuditor(auditor),
		sponsor.WithMetrics(appMetrics),
	)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "vellum", "vellum-issuers", cfg.TokenTTL)

	router := httptransport.NewRouter(httptransport.Deps{
		Credentials:    credentialhandler.New(credentials, cfg.MaxArtifactBytes, log),
		Sponsorship:    sponsorhandler.New(sponsorship, log),
		Health:         healthHandler,
		TokenValidator: jwttoken.NewMiddlewareAdapter(tokens),
		Logger:         log,
		Metrics:        requestMetrics,
		RequestTimeout: 30 * time.Second,
		MaxBodyBytes:   cfg.MaxArtifactBytes + (1 << 20), // artifact plus form overhead
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// loadSigner builds a signer from the configured seed, falling back to an
// ephemeral dev key when no seed is set.
func loadSigner(seed string, log *slog.Logger, role string) *sui.Ed25519Signer {
	if seed != "" {
		signer, err := sui.NewEd25519Signer(seed)
		if err == nil {
			return signer
		}
		log.Warn("invalid signer seed, falling back to ephemeral key", "role", role, "error", err)
	} else {
		log.Warn("no signer seed configured, using ephemeral key", "role", role)
	}
	signer, err := sui.NewEphemeralSigner()
	if err != nil {
		panic(err)
	}
	return signer
}

func parseAllowedIssuers(raw []string, log *slog.Logger) []id.AccountAddress {
	var issuers []id.AccountAddress
	for _, addr := range raw {
		parsed, err := id.ParseAccountAddress(addr)
		if err != nil {
			log.Warn("skipping malformed allowed issuer address", "address", addr, "error", err)
			continue
		}
		issuers = append(issuers, parsed)
	}
	return issuers
}

// recordRedisStats exports connection pool statistics periodically.
func recordRedisStats(client *platformredis.Client) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		client.RecordPoolStats()
	}
}
