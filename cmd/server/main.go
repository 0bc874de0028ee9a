package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	achandler "sigil/internal/accesscontrol/handler"
	acmetrics "sigil/internal/accesscontrol/metrics"
	acmodels "sigil/internal/accesscontrol/models"
	acservice "sigil/internal/accesscontrol/service"
	acstore "sigil/internal/accesscontrol/store"
	acpostgres "sigil/internal/accesscontrol/store/postgres"
	"sigil/internal/audit"
	"sigil/internal/issuance/authz"
	isshandler "sigil/internal/issuance/handler"
	issmetrics "sigil/internal/issuance/metrics"
	issservice "sigil/internal/issuance/service"
	"sigil/internal/issuance/tracer"
	"sigil/internal/ledger"
	"sigil/internal/platform/config"
	"sigil/internal/platform/database"
	"sigil/internal/platform/health"
	"sigil/internal/platform/httpserver"
	"sigil/internal/platform/kafka"
	"sigil/internal/platform/kafka/producer"
	"sigil/internal/platform/logger"
	"sigil/internal/platform/redis"
	"sigil/internal/platform/token"
	reghandler "sigil/internal/registry/handler"
	regmetrics "sigil/internal/registry/metrics"
	regservice "sigil/internal/registry/service"
	regstore "sigil/internal/registry/store"
	regcache "sigil/internal/registry/store/cache"
	regpostgres "sigil/internal/registry/store/postgres"
	httptransport "sigil/internal/transport/http"
	"sigil/internal/treasury"
	id "sigil/pkg/domain"
	"sigil/pkg/platform/audit/outbox"
	outboxmetrics "sigil/pkg/platform/audit/outbox/metrics"
	"sigil/pkg/platform/audit/outbox/worker"
)

// main wires dependencies and supervises the process lifecycle. Business
// logic lives in the internal service packages; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	genesis, err := genesisState(cfg)
	if err != nil {
		return err
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // best-effort close on shutdown

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}

	// Postgres when configured, in-memory otherwise. The memory stores carry
	// the same semantics and back local development and tests.
	var (
		accessStore   acstore.Store
		registryStore regstore.Store
		ledgerStore   ledger.Store
		auditStore    audit.Store
		nonceStore    authz.NonceStore
		valueSink     treasury.Sink
		outboxStore   outbox.Store
	)
	if db != nil {
		pg := acpostgres.New(db.DB())
		if err := pg.EnsureGenesis(ctx, genesis); err != nil {
			return err
		}
		accessStore = pg
		registryStore = regpostgres.New(db.DB())
		ledgerStore = ledger.NewPostgres(db.DB())
		auditStore = audit.NewPostgres(db.DB())
		nonceStore = authz.NewPostgresNonceStore(db.DB())
		valueSink = treasury.NewPostgresSink(db.DB())
		outboxStore = outbox.NewPostgres(db.DB())
		log.Info("using postgres stores")
	} else {
		accessStore = acstore.NewMemory(genesis)
		registryStore = regstore.NewMemory()
		ledgerStore = ledger.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		nonceStore = authz.NewInMemoryNonceStore()
		valueSink = treasury.NewInMemorySink()
		outboxStore = outbox.NewInMemoryStore()
		log.Warn("no database configured, using in-memory stores")
	}

	if redisClient != nil {
		registryStore = regcache.New(registryStore, redisClient, cfg.Redis.CacheTTL, log)
	}

	publisherOpts := []audit.Option{audit.WithLogger(log)}

	var outboxWorker *worker.Worker
	if cfg.Kafka.Brokers != "" {
		prod, err := producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), log)
		if err != nil {
			return err
		}
		defer prod.Close()

		publisherOpts = append(publisherOpts, audit.WithOutbox(outboxStore))
		outboxWorker = worker.New(outboxStore, prod,
			worker.WithTopic(cfg.Kafka.AuditTopic),
			worker.WithMetrics(outboxmetrics.New()),
			worker.WithLogger(log),
		)
	}

	auditPublisher := audit.NewPublisher(auditStore, publisherOpts...)

	accessService := acservice.New(accessStore,
		acservice.WithLogger(log),
		acservice.WithAuditPublisher(auditPublisher),
		acservice.WithMetrics(acmetrics.New()),
	)
	registryService := regservice.New(registryStore, accessService,
		regservice.WithLogger(log),
		regservice.WithAuditPublisher(auditPublisher),
		regservice.WithMetrics(regmetrics.New()),
	)
	credentialLedger := ledger.New(ledgerStore)
	issuanceService := issservice.New(registryService, credentialLedger, accessService, nonceStore, valueSink, cfg.MintAuthMode, cfg.Domain,
		issservice.WithLogger(log),
		issservice.WithAuditPublisher(auditPublisher),
		issservice.WithMetrics(issmetrics.New()),
		issservice.WithTracer(tracer.NewOTel()),
	)

	tokens := token.NewService(cfg.JWTSigningKey, "sigil", 24*time.Hour)

	healthHandler := health.New(cfg.Environment)
	if db != nil {
		healthHandler.RegisterCheck("database", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.Health(checkCtx)
		})
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return redisClient.Health(checkCtx)
		})
	}
	if cfg.Kafka.Brokers != "" {
		kafkaCheck := kafka.NewHealthChecker(cfg.Kafka.Brokers)
		healthHandler.RegisterCheck("kafka", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return kafkaCheck.Check(checkCtx)
		})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		TokenValidator: tokens,
		AdminKeyHash:   cfg.AdminAPIKeyHash,
		Health:         healthHandler,
		Registry:       reghandler.New(registryService, log),
		Issuance:       isshandler.New(issuanceService, log),
		Access:         achandler.New(accessService, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting sigil",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"mint_auth_mode", cfg.MintAuthMode,
		"domain", cfg.Domain,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if outboxWorker != nil {
		outboxWorker.Start()
		g.Go(func() error {
			<-gctx.Done()
			log.Info("draining audit outbox")
			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return outboxWorker.Stop(drainCtx)
		})
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := outboxWorker.UpdateMetrics(gctx); err != nil && !errors.Is(err, context.Canceled) {
						log.Warn("outbox metrics update failed", "error", err)
					}
				}
			}
		})
	}

	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // best-effort close on shutdown
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					redisClient.RecordPoolStats()
				}
			}
		})
	}

	err = g.Wait()
	log.Info("server stopped")
	return err
}

// genesisState builds the initial administrative state from configuration.
// It is applied only when the access-control store is empty.
func genesisState(cfg config.Server) (acmodels.State, error) {
	owner, err := id.ParseAddress(cfg.OwnerAddress)
	if err != nil {
		return acmodels.State{}, err
	}

	state := acmodels.State{
		Owner:   owner,
		BaseURI: cfg.BaseURI,
	}

	if cfg.TreasuryAddress != "" {
		treasuryAddr, err := id.ParseAddress(cfg.TreasuryAddress)
		if err != nil {
			return acmodels.State{}, err
		}
		state.Treasury = treasuryAddr
	}
	if cfg.SignerPublicKey != "" {
		signer, err := acmodels.ParseSignerKey(cfg.SignerPublicKey)
		if err != nil {
			return acmodels.State{}, err
		}
		state.Signer = signer
	}
	return state, nil
}
