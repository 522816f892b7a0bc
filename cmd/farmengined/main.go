package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/galacticcouncil/warehouse/cmd/farmengined/internal/passphrase"
	"github.com/galacticcouncil/warehouse/config"
	"github.com/galacticcouncil/warehouse/core/events"
	"github.com/galacticcouncil/warehouse/crypto"
	"github.com/galacticcouncil/warehouse/gateway/auth"
	"github.com/galacticcouncil/warehouse/gateway/middleware"
	"github.com/galacticcouncil/warehouse/gateway/routes"
	"github.com/galacticcouncil/warehouse/native/farming"
	"github.com/galacticcouncil/warehouse/observability/logging"
	"github.com/galacticcouncil/warehouse/observability/metrics"
	telemetry "github.com/galacticcouncil/warehouse/observability/otel"
	"github.com/galacticcouncil/warehouse/ops/seeds"
	"github.com/galacticcouncil/warehouse/tools/warehouse"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "farmengined.toml", "path to farmengined configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := log.New(os.Stdout, "farmengined ", log.LstdFlags|log.Lmsgprefix)
	slogger := logging.SetupRotating("farmengined", cfg.Environment, logging.RotationOptions{
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	slogger.Info("starting farmengined", "listen", cfg.ListenAddress, "store", cfg.Store.Backend, "ledger", cfg.Ledger.Backend)

	var shutdownTelemetry func(context.Context) error
	if cfg.Tracing.Enabled {
		shutdownTelemetry, err = telemetry.Init(context.Background(), telemetry.Config{
			ServiceName: "farmengined",
			Environment: cfg.Environment,
			Endpoint:    cfg.Tracing.OTLPEndpoint,
			Insecure:    true,
			Metrics:     true,
			Traces:      true,
		})
		if err != nil {
			logger.Fatalf("init telemetry: %v", err)
		}
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	owner, err := unlockOwnerKey(cfg)
	if err != nil {
		logger.Fatalf("unlock owner key: %v", err)
	}
	logger.Printf("farm owner address: %s", owner.PubKey().Address().String())

	store, err := openStore(cfg.Store)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}

	transactor, err := openTransactor(cfg.Ledger)
	if err != nil {
		logger.Fatalf("open ledger: %v", err)
	}

	hub := routes.NewHub()
	sinks := events.Tee{hub}

	var exporter *warehouse.Exporter
	stopExporter := make(chan struct{})
	if cfg.Warehouse.Enabled {
		exporter = warehouse.NewExporter(cfg.Warehouse.ExportPath)
		sinks = append(sinks, exporter)
		go exporter.Run(stopExporter, 5*time.Minute)
	}

	engine := farming.NewEngine(store, transactor,
		farming.WithEmitter(sinks),
		farming.WithMetrics(metrics.Farming()),
	)

	for _, manifestPath := range cfg.Seeds {
		manifest, err := seeds.Load(manifestPath)
		if err != nil {
			logger.Fatalf("load seed manifest %s: %v", manifestPath, err)
		}
		if err := seeds.Apply(engine, manifest, 0); err != nil {
			logger.Fatalf("apply seed manifest %s: %v", manifestPath, err)
		}
		logger.Printf("applied seed manifest %s", manifestPath)
	}

	var noncePersistence auth.NoncePersistence
	if noncePath := strings.TrimSpace(cfg.Auth.NoncePath); noncePath != "" {
		nonceDB, err := auth.NewLevelDBNoncePersistence(noncePath)
		if err != nil {
			logger.Fatalf("open nonce store: %v", err)
		}
		defer nonceDB.Close()
		noncePersistence = nonceDB
	}
	hmacAuth := auth.NewAuthenticator(cfg.Auth.APIKeys, 2*time.Minute, 5*time.Minute, 4096, time.Now, noncePersistence)

	jwtAuth := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    cfg.Auth.JWTEnabled,
		HMACSecret: cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.JWTIssuer,
		Audience:   cfg.Auth.JWTAudience,
		ScopeClaim: "scope",
	}, logger)

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName:   "farmengined",
		MetricsPrefix: "farmengined",
		LogRequests:   true,
		Enabled:       true,
	}, logger)

	rateLimiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{
		"farming": {RatePerSecond: cfg.RateLimit.ClaimPerSecond, Burst: cfg.RateLimit.ClaimBurst},
	}, logger)

	handler := routes.New(routes.Config{
		Engine:        engine,
		Hub:           hub,
		Authenticator: jwtAuth,
		HMACAuth:      hmacAuth,
		RateLimiter:   rateLimiter,
		Observability: obs,
		CORS: middleware.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Api-Key", "X-Signature", "X-Nonce", "X-Timestamp"},
		},
		AdminScopes: []string{"farming.admin"},
	})

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}
	go func() {
		logger.Printf("listening on http://%s", listener.Addr())
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen and serve: %v", err)
		}
	}()

	<-ctx.Done()
	close(stopExporter)
	if exporter != nil {
		if err := exporter.Flush(); err != nil {
			logger.Printf("final warehouse flush failed: %v", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

func unlockOwnerKey(cfg *config.Config) (*crypto.PrivateKey, error) {
	envVar := strings.TrimSpace(cfg.OwnerPassEnvVar)
	src := passphrase.NewSource(envVar)
	pass, err := src.Get()
	if err != nil {
		return nil, err
	}
	return crypto.LoadFromKeystore(cfg.OwnerKeystorePath, pass)
}

func openStore(cfg config.StoreConfig) (farming.Store, error) {
	switch cfg.Backend {
	case config.StoreBackendMemory:
		return farming.NewMemStore(), nil
	case config.StoreBackendBolt:
		return farming.OpenBoltStore(cfg.BoltPath)
	case config.StoreBackendSQL:
		return farming.OpenSQLStore(cfg.SQLDSN)
	default:
		return nil, fmt.Errorf("farmengined: unknown store backend %q", cfg.Backend)
	}
}

func openTransactor(cfg config.LedgerConfig) (farming.AssetTransactor, error) {
	switch cfg.Backend {
	case config.LedgerBackendMemory:
		return farming.NewInMemoryLedger(), nil
	case config.LedgerBackendPostgres:
		return farming.OpenPostgresLedger(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("farmengined: unknown ledger backend %q", cfg.Backend)
	}
}
