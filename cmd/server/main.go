package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"assetgate/internal/abm"
	"assetgate/internal/consensus"
	"assetgate/internal/fraud"
	jwttoken "assetgate/internal/jwt_token"
	"assetgate/internal/legal"
	"assetgate/internal/oracle"
	oraclemetrics "assetgate/internal/oracle/metrics"
	oraclesignal "assetgate/internal/oracle/signal"
	"assetgate/internal/platform/config"
	"assetgate/internal/platform/httpserver"
	"assetgate/internal/platform/logger"
	platformredis "assetgate/internal/platform/redis"
	"assetgate/internal/registry"
	"assetgate/internal/submission"
	submissionmetrics "assetgate/internal/submission/metrics"
	httptransport "assetgate/internal/transport/http"
	audit "assetgate/pkg/platform/audit"
	auditkafka "assetgate/pkg/platform/audit/publishers/kafka"
	auditmemory "assetgate/pkg/platform/audit/store/memory"
	auditpostgres "assetgate/pkg/platform/audit/store/postgres"
	auditworker "assetgate/pkg/platform/audit/worker"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, auditStore, health, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// Audit pipeline: channel -> worker -> store (+ optional Kafka sink).
	events := make(chan audit.Event, 1024)

	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := auditkafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return fmt.Errorf("kafka sink: %w", err)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := auditworker.NewWorker(auditStore, sink, events, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	oracleSvc := oracle.NewService(
		oraclesignal.Default(),
		cfg.Weights,
		cfg.Pipeline.ProviderTimeout,
		log,
		oraclemetrics.New(),
	)
	abmSvc := abm.NewService(cfg.Pipeline.Seed, log)
	fraudSvc := fraud.NewService(cfg.Fraud, log)
	consensusEngine := consensus.New(cfg.Thresholds)
	registrySvc := registry.NewService(registry.NewInMemoryStore(), log)
	legalWorkflow := legal.NewSimulated(log)

	submissionSvc := submission.NewService(
		store,
		oracleSvc,
		abmSvc,
		fraudSvc,
		consensusEngine,
		registrySvc,
		legalWorkflow,
		events,
		cfg.Pipeline.StageTimeout,
		log,
		submissionmetrics.New(),
	)

	jwtSvc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "assetgate", "assetgate-api")

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Submissions:  httptransport.NewSubmissionHandler(submissionSvc, log),
		Assets:       httptransport.NewAssetHandler(registrySvc, auditStore, log),
		Validator:    jwttoken.NewJWTServiceAdapter(jwtSvc),
		AuthDisabled: cfg.Server.AuthDisabled,
		Health:       health,
		Logger:       log,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("assetgate listening",
			"addr", cfg.Server.Addr,
			"store", cfg.Store,
			"auth_disabled", cfg.Server.AuthDisabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	// Let in-flight submissions finish their pipeline, then drain the audit
	// worker.
	submissionSvc.Wait()
	<-workerDone
	return nil
}

// buildStores constructs the configured submission store backend, the audit
// store that shares its durability, and the health checks for both.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (submission.Store, audit.Store, map[string]httptransport.HealthChecker, func(), error) {
	health := make(map[string]httptransport.HealthChecker)
	noop := func() {}

	switch cfg.Store {
	case config.StoreMemory:
		return submission.NewInMemoryStore(), auditmemory.NewInMemoryStore(), health, noop, nil

	case config.StoreRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, nil, noop, fmt.Errorf("redis store: %w", err)
		}
		if client == nil {
			return nil, nil, nil, noop, fmt.Errorf("redis store selected but ASSETGATE_REDIS_URL is empty")
		}
		health["redis"] = client
		log.Info("using redis submission store")
		return submission.NewRedisStore(client.Client), auditmemory.NewInMemoryStore(), health, func() { _ = client.Close() }, nil

	case config.StorePostgres:
		if cfg.PostgresURL == "" {
			return nil, nil, nil, noop, fmt.Errorf("postgres store selected but ASSETGATE_POSTGRES_URL is empty")
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, noop, fmt.Errorf("postgres store: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, noop, fmt.Errorf("postgres ping: %w", err)
		}
		health["postgres"] = pgxHealth{pool}
		log.Info("using postgres submission store")
		return submission.NewPostgresStore(pool), auditpostgres.New(pool), health, pool.Close, nil

	default:
		return nil, nil, nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}

type pgxHealth struct {
	pool *pgxpool.Pool
}

func (h pgxHealth) Health(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
