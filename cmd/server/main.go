package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"claimbridge/internal/attestation"
	"claimbridge/internal/chain"
	crhandler "claimbridge/internal/claimrequest/handler"
	crservice "claimbridge/internal/claimrequest/service"
	crstore "claimbridge/internal/claimrequest/store"
	httpapi "claimbridge/internal/http"
	"claimbridge/internal/identity"
	idhandler "claimbridge/internal/identity/handler"
	"claimbridge/internal/issuers"
	ishandler "claimbridge/internal/issuers/handler"
	jwttoken "claimbridge/internal/jwt_token"
	"claimbridge/internal/platform/config"
	"claimbridge/internal/platform/httpserver"
	"claimbridge/internal/platform/kafka"
	"claimbridge/internal/platform/logger"
	"claimbridge/internal/platform/metrics"
	"claimbridge/internal/platform/postgres"
	redisplatform "claimbridge/internal/platform/redis"
	"claimbridge/internal/publisher"
	pubhandler "claimbridge/internal/publisher/handler"
	id "claimbridge/pkg/domain"
	audit "claimbridge/pkg/platform/audit"
	"claimbridge/pkg/platform/audit/publishers/compliance"
	"claimbridge/pkg/platform/audit/publishers/ops"
	auditmemory "claimbridge/pkg/platform/audit/store/memory"
	auditpg "claimbridge/pkg/platform/audit/store/postgres"
	"claimbridge/pkg/platform/audit/worker"
	"claimbridge/pkg/platform/tx"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("claimbridge stopped with error", "error", err)
		os.Exit(1)
	}
}

// infra holds the connections main opens and must close.
type infra struct {
	db       *sql.DB
	redis    *redisplatform.Client
	gateway  *chain.Gateway
	producer *kafka.Producer
}

func (i *infra) close() {
	if i.producer != nil {
		i.producer.Close()
	}
	if i.gateway != nil {
		i.gateway.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	deps := &infra{}
	defer deps.close()
	checks := map[string]httpapi.HealthCheck{}

	// Ledger and audit storage.
	var (
		store      crservice.Store
		auditStore audit.Store
		runner     crservice.TxRunner
		outbox     *auditpg.Store
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		deps.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		store = crstore.NewPostgresStore(db)
		outbox = auditpg.New(db)
		auditStore = outbox
		runner = tx.NewRunner(db)
		checks["database"] = db.PingContext
	default:
		memStore := crstore.NewInMemoryStore()
		store = memStore
		runner = memStore
		auditStore = auditmemory.NewInMemoryStore()
		log.Warn("using in-memory ledger; requests are lost on restart")
	}

	// Chain access.
	gateway, err := chain.Dial(ctx, cfg.Chain,
		chain.WithLogger(log),
		chain.WithMetrics(chain.NewMetrics()),
	)
	if err != nil {
		return err
	}
	deps.gateway = gateway
	checks["chain"] = gateway.Health

	trustedRegistry, err := optionalAddress(cfg.Chain.TrustedIssuersRegistry)
	if err != nil {
		return fmt.Errorf("TRUSTED_ISSUERS_REGISTRY_ADDRESS: %w", err)
	}
	identityRegistry, err := optionalAddress(cfg.Chain.IdentityRegistry)
	if err != nil {
		return fmt.Errorf("IDENTITY_REGISTRY_ADDRESS: %w", err)
	}

	// Issuer directory, cached in Redis when configured.
	dirOpts := []issuers.Option{
		issuers.WithTTL(cfg.Ledger.IssuerCacheTTL),
		issuers.WithLogger(log),
		issuers.WithMetrics(issuers.NewMetrics()),
	}
	redisClient, err := redisplatform.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		deps.redis = redisClient
		dirOpts = append(dirOpts, issuers.WithCache(issuers.NewRedisCache(redisClient.Client)))
		checks["redis"] = redisClient.Health
	}
	directory := issuers.New(gateway, trustedRegistry, dirOpts...)
	reader := identity.New(gateway, identityRegistry, identity.WithLogger(log))

	// Audit publishers.
	compliancePub := compliance.New(auditStore,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics()),
	)
	tracker := ops.New(auditStore,
		ops.WithLogger(log),
		ops.WithMetrics(ops.NewMetrics()),
	)

	// Request ledger.
	ledgerOpts := []crservice.Option{
		crservice.WithLogger(log),
		crservice.WithMetrics(crservice.NewMetrics()),
		crservice.WithSecurityTracker(tracker),
		crservice.WithSignaturePolicy(crservice.SignaturePolicy(cfg.Ledger.RequesterSignaturePolicy)),
		crservice.WithTxRunner(runner),
	}
	if cfg.Ledger.RequireTrustedIssuer {
		ledgerOpts = append(ledgerOpts, crservice.WithTrustedIssuerGate(directory))
	}
	ledger := crservice.New(store, attestation.New(), compliancePub, ledgerOpts...)

	// Claim publisher.
	pub := publisher.New(gateway,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
		publisher.WithIdentityResolver(reader),
		publisher.WithOpsTracker(tracker),
		publisher.WithDocumentURIBase(cfg.Ledger.DocumentURIBase),
		publisher.WithConfirmTimeout(cfg.Chain.ConfirmTimeout),
	)

	// Outbox relay to Kafka; only the Postgres outbox can feed it.
	var relay *worker.Worker
	if len(cfg.Kafka.Brokers) > 0 && outbox != nil {
		producer, err := kafka.New(ctx, cfg.Kafka)
		if err != nil {
			return err
		}
		deps.producer = producer
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			return err
		}
		checks["kafka"] = producer.Health
		relay = worker.NewWorker(outbox, producer,
			worker.WithLogger(log),
			worker.WithMetrics(worker.NewMetrics()),
			worker.WithInterval(cfg.Kafka.RelayInterval),
			worker.WithBatchSize(cfg.Kafka.RelayBatch),
		)
	}

	// HTTP.
	ledgerHandler := crhandler.New(ledger, log)
	routerCfg := httpapi.Config{
		Logger:  log,
		Metrics: metrics.New(),
		Modules: []httpapi.Registrar{
			ledgerHandler,
			pubhandler.New(ledger, pub, gateway, log),
			ishandler.New(directory, log),
			idhandler.New(reader, log),
		},
		Admin:  []httpapi.AdminRegistrar{ledgerHandler},
		Checks: checks,
	}
	if cfg.Auth.AdminJWTSecret != "" {
		routerCfg.AdminTokens = jwttoken.NewJWTServiceAdapter(
			jwttoken.NewJWTService(cfg.Auth.AdminJWTSecret, cfg.Auth.AdminIssuer),
		)
	}
	srv := httpserver.New(cfg.Server.Addr, httpapi.NewRouter(routerCfg))

	g, gctx := errgroup.WithContext(ctx)

	if relay != nil {
		g.Go(func() error {
			log.Info("outbox relay started", "topic", cfg.Kafka.Topic)
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("outbox relay: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("starting claimbridge", "addr", cfg.Server.Addr, "store", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func optionalAddress(raw string) (id.Address, error) {
	if raw == "" {
		return id.Address(""), nil
	}
	return id.ParseAddress(raw)
}
